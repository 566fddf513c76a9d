package discord

// Interaction request types.
const (
	InteractionPing        = 1
	InteractionComponent   = 3
	InteractionModalSubmit = 5
)

// Interaction response types.
const (
	ResponsePong           = 1
	ResponseChannelMessage = 4
	ResponseUpdateMessage  = 7
	ResponseModal          = 9
)

// Component types.
const (
	ComponentActionRow    = 1
	ComponentButton       = 2
	ComponentStringSelect = 3
	ComponentTextInput    = 4
)

// Button styles.
const (
	ButtonPrimary   = 1
	ButtonSecondary = 2
	ButtonSuccess   = 3
	ButtonDanger    = 4
)

// Text input styles.
const (
	TextInputShort     = 1
	TextInputParagraph = 2
)

// FlagEphemeral marks a response message as visible only to the invoking
// user.
const FlagEphemeral = 1 << 6

// Interaction is the inbound payload Discord posts to the interactions
// endpoint.
type Interaction struct {
	ID        string          `json:"id"`
	Type      int             `json:"type"`
	Token     string          `json:"token"`
	ChannelID string          `json:"channel_id"`
	Message   *MessageRef     `json:"message,omitempty"`
	Data      InteractionData `json:"data"`
}

// MessageRef identifies the message an interaction was invoked on.
type MessageRef struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

type InteractionData struct {
	CustomID      string      `json:"custom_id"`
	ComponentType int         `json:"component_type,omitempty"`
	Values        []string    `json:"values,omitempty"`
	Components    []ActionRow `json:"components,omitempty"`
}

// TextValue returns the submitted value of the text input with the given
// custom id from a modal submit payload.
func (d InteractionData) TextValue(customID string) string {
	for _, row := range d.Components {
		for _, component := range row.Components {
			if component.CustomID == customID {
				return component.Value
			}
		}
	}
	return ""
}

type ActionRow struct {
	Type       int         `json:"type"`
	Components []Component `json:"components"`
}

// Component covers buttons, string selects, and text inputs; unused fields
// stay zero and are omitted from the wire form.
type Component struct {
	Type        int            `json:"type"`
	Style       int            `json:"style,omitempty"`
	Label       string         `json:"label,omitempty"`
	CustomID    string         `json:"custom_id,omitempty"`
	Value       string         `json:"value,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Disabled    bool           `json:"disabled,omitempty"`
	Required    bool           `json:"required,omitempty"`
	Options     []SelectOption `json:"options,omitempty"`
}

type SelectOption struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	Default     bool   `json:"default,omitempty"`
}

// Message is the body for message create and edit calls. Components is not
// omitempty so an edit can explicitly clear a message's components.
type Message struct {
	Content    string      `json:"content,omitempty"`
	Components []ActionRow `json:"components"`
}

// InteractionResponse is the synchronous answer to an interaction.
type InteractionResponse struct {
	Type int           `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

type ResponseData struct {
	Content    string      `json:"content,omitempty"`
	Flags      int         `json:"flags,omitempty"`
	Components []ActionRow `json:"components,omitempty"`
	CustomID   string      `json:"custom_id,omitempty"`
	Title      string      `json:"title,omitempty"`
}

// Pong answers a Discord PING healthcheck.
func Pong() InteractionResponse {
	return InteractionResponse{Type: ResponsePong}
}

// Ephemeral builds a channel-message response visible only to the invoking
// user.
func Ephemeral(content string, rows ...ActionRow) InteractionResponse {
	return InteractionResponse{
		Type: ResponseChannelMessage,
		Data: &ResponseData{
			Content:    content,
			Flags:      FlagEphemeral,
			Components: rows,
		},
	}
}
