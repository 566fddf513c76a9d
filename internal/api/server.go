package api

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Traumatized-ink/zoho-discord/internal/config"
	"github.com/Traumatized-ink/zoho-discord/internal/directory"
	"github.com/Traumatized-ink/zoho-discord/internal/discord"
	"github.com/Traumatized-ink/zoho-discord/internal/format"
	"github.com/Traumatized-ink/zoho-discord/internal/pagination"
	"github.com/Traumatized-ink/zoho-discord/internal/store"
	"github.com/Traumatized-ink/zoho-discord/internal/zoho"
)

// InboundHandler relays an inbound email payload to the chat platform.
type InboundHandler interface {
	Handle(ctx context.Context, in format.Inbound) error
}

// InteractionHandler answers Discord interaction callbacks.
type InteractionHandler interface {
	HandleInteraction(ctx context.Context, in discord.Interaction) (discord.InteractionResponse, error)
}

type Server struct {
	cfg       config.Config
	relay     InboundHandler
	flow      InteractionHandler
	directory *directory.Directory
	store     *store.Store
	tokens    *zoho.Tokens
	publicKey ed25519.PublicKey
	logger    *slog.Logger
	mux       *http.ServeMux
}

func NewServer(cfg config.Config, relay InboundHandler, flow InteractionHandler, dir *directory.Directory, st *store.Store, tokens *zoho.Tokens, publicKey ed25519.PublicKey, logger *slog.Logger) *Server {
	server := &Server{
		cfg:       cfg,
		relay:     relay,
		flow:      flow,
		directory: dir,
		store:     st,
		tokens:    tokens,
		publicKey: publicKey,
		logger:    logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/zoho", server.handleWebhook)
	mux.HandleFunc("/health", server.handleHealth)
	mux.HandleFunc("/interactions", server.handleInteractions)
	mux.HandleFunc("/oauth/start", server.handleOAuthStart)
	mux.HandleFunc("/oauth/callback", server.handleOAuthCallback)
	mux.HandleFunc("/api/identities", server.handleIdentities)
	mux.HandleFunc("/api/identities/refresh", server.handleIdentitiesRefresh)
	mux.HandleFunc("/api/correlations", server.handleCorrelations)
	server.mux = mux
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	requestID := uuid.NewString()

	var payload format.Inbound
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.logger.Warn("webhook payload rejected", "request_id", requestID, "error", err)
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := s.relay.Handle(r.Context(), payload); err != nil {
		s.logger.Error("forward email to discord",
			"request_id", requestID,
			"mail_message_id", string(payload.MessageID),
			"error", err)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to forward email"})
		return
	}

	s.logger.Info("email relayed",
		"request_id", requestID,
		"mail_message_id", string(payload.MessageID),
		"from", payload.FromAddress)
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if len(s.publicKey) == 0 {
		http.Error(w, "interactions not configured", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "unable to read body", http.StatusBadRequest)
		return
	}
	signature := r.Header.Get("X-Signature-Ed25519")
	timestamp := r.Header.Get("X-Signature-Timestamp")
	if !discord.VerifySignature(s.publicKey, signature, timestamp, body) {
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}

	var interaction discord.Interaction
	if err := json.Unmarshal(body, &interaction); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	response, err := s.flow.HandleInteraction(r.Context(), interaction)
	if err != nil {
		s.logger.Error("handle interaction",
			"interaction_id", interaction.ID,
			"custom_id", interaction.Data.CustomID,
			"error", err)
		http.Error(w, "unable to handle interaction", http.StatusBadRequest)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	authURL := s.tokens.AuthCodeURL(uuid.NewString())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<h1>Zoho OAuth Setup</h1>
<p><a href=%q target="_blank">Click here to authorize your Zoho account</a></p>
<p>After authorization, you'll be redirected back here automatically.</p>`, authURL)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<h1>Error: No authorization code received</h1>")
		return
	}

	token, err := s.tokens.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Error("oauth code exchange", "error", err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<h1>❌ Error getting tokens</h1><pre>%s</pre>", html.EscapeString(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<h1>✅ OAuth Setup Complete!</h1>
<h2>Add this to your .env file:</h2>
<pre>ZOHO_REFRESH_TOKEN=%s</pre>
<p>Then restart the relay.</p>`, html.EscapeString(token.RefreshToken))
}

func (s *Server) handleIdentities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identities, err := s.directory.List(r.Context())
	if err != nil {
		s.logger.Error("list identities", "error", err)
		http.Error(w, "unable to list identities", http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"identities": toIdentityViews(identities)})
}

func (s *Server) handleIdentitiesRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	count, err := s.directory.Refresh(r.Context())
	if err != nil {
		s.logger.Error("manual identity refresh", "error", err)
		http.Error(w, "refresh failed", http.StatusBadGateway)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleCorrelations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	params := pagination.FromQuery(r.URL.Query())
	records, total, err := s.store.ListCorrelations(r.Context(), params.Offset, params.Limit)
	if err != nil {
		s.logger.Error("list correlations", "error", err)
		http.Error(w, "unable to list correlations", http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"correlations": toCorrelationViews(records),
		"total":        total,
		"page":         params.Page,
		"limit":        params.Limit,
		"hasMore":      pagination.HasNext(params.Offset, params.Limit, total),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}
