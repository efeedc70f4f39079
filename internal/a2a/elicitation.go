package a2a

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ElicitationMode selects how a server requests input from a user, per
// the MCP 2025-11-25 elicitation spec ported from
// original_source/crates/skreaver-mcp/src/elicitation.rs.
type ElicitationMode string

const (
	ElicitationModeForm ElicitationMode = "form"
	ElicitationModeURL  ElicitationMode = "url"
)

// ElicitationAction is the user's disposition toward a request.
type ElicitationAction string

const (
	ElicitationAccept  ElicitationAction = "accept"
	ElicitationDecline ElicitationAction = "decline"
	ElicitationCancel  ElicitationAction = "cancel"
)

// ElicitationRequest is a server-to-client request for user input. Form
// mode carries RequestedSchema (a flat JSON Schema of primitives); URL
// mode carries URL and an ElicitationID used to correlate an eventual
// out-of-band response.
type ElicitationRequest struct {
	Mode            ElicitationMode `json:"mode"`
	Message         string          `json:"message"`
	RequestedSchema json.RawMessage `json:"requestedSchema,omitempty"`
	URL             string          `json:"url,omitempty"`
	ElicitationID   string          `json:"elicitationId,omitempty"`
}

// NewFormElicitation builds a form-mode request.
func NewFormElicitation(message string, schema json.RawMessage) ElicitationRequest {
	return ElicitationRequest{Mode: ElicitationModeForm, Message: message, RequestedSchema: schema}
}

// NewURLElicitation builds a URL-mode request with a fresh correlation
// ID.
func NewURLElicitation(message, url string) ElicitationRequest {
	return ElicitationRequest{Mode: ElicitationModeURL, Message: message, URL: url, ElicitationID: uuid.NewString()}
}

// ElicitationResponse is the client's reply. Content is populated only
// when Action is Accept.
type ElicitationResponse struct {
	Action  ElicitationAction `json:"action"`
	Content json.RawMessage   `json:"content,omitempty"`
}

// IsAccepted reports whether the user approved and provided content.
func (r ElicitationResponse) IsAccepted() bool {
	return r.Action == ElicitationAccept
}

// SchemaBuilder assembles a flat JSON Schema of primitive fields for
// form-mode elicitation, matching the field types
// ElicitationSchemaBuilder in elicitation.rs supports: string, formatted
// string, number, integer, boolean, enum.
type SchemaBuilder struct {
	properties map[string]any
	required   []string
}

// NewSchemaBuilder starts an empty schema.
func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{properties: map[string]any{}}
}

func (b *SchemaBuilder) addField(name string, field map[string]any, required bool) *SchemaBuilder {
	b.properties[name] = field
	if required {
		b.required = append(b.required, name)
	}
	return b
}

// StringField adds a plain string property.
func (b *SchemaBuilder) StringField(name, description string, required bool) *SchemaBuilder {
	return b.addField(name, map[string]any{"type": "string", "description": description}, required)
}

// FormattedStringField adds a string property with a format constraint
// (e.g. "email", "uri", "date", "date-time").
func (b *SchemaBuilder) FormattedStringField(name, description, format string, required bool) *SchemaBuilder {
	return b.addField(name, map[string]any{"type": "string", "format": format, "description": description}, required)
}

// NumberField adds a floating-point numeric property.
func (b *SchemaBuilder) NumberField(name, description string, required bool) *SchemaBuilder {
	return b.addField(name, map[string]any{"type": "number", "description": description}, required)
}

// IntegerField adds an integer property.
func (b *SchemaBuilder) IntegerField(name, description string, required bool) *SchemaBuilder {
	return b.addField(name, map[string]any{"type": "integer", "description": description}, required)
}

// BooleanField adds a boolean property.
func (b *SchemaBuilder) BooleanField(name, description string, required bool) *SchemaBuilder {
	return b.addField(name, map[string]any{"type": "boolean", "description": description}, required)
}

// EnumField adds a single-select string property constrained to options.
func (b *SchemaBuilder) EnumField(name, description string, options []string, required bool) *SchemaBuilder {
	return b.addField(name, map[string]any{"type": "string", "enum": options, "description": description}, required)
}

// Build renders the schema as JSON, suitable for ElicitationRequest.RequestedSchema.
func (b *SchemaBuilder) Build() json.RawMessage {
	schema := map[string]any{
		"type":       "object",
		"properties": b.properties,
		"required":   b.required,
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		// properties/required are built exclusively from the typed
		// helpers above, so marshaling cannot fail in practice.
		return json.RawMessage(`{"type":"object","properties":{},"required":[]}`)
	}
	return raw
}

// Broker correlates ElicitationRequests issued by a server with the
// eventual ElicitationResponse a client supplies, as a blocking
// request/response exchange matching the synchronous style of the rest
// of the C13 surface.
type Broker struct {
	mu      sync.Mutex
	pending map[string]chan ElicitationResponse
}

// NewBroker builds an empty Broker.
func NewBroker() *Broker {
	return &Broker{pending: make(map[string]chan ElicitationResponse)}
}

// Request registers req under a fresh correlation ID (reusing
// req.ElicitationID when already set, e.g. for URL mode) and blocks
// until Resolve is called with that ID or ctx is canceled.
func (b *Broker) Request(ctx context.Context, req ElicitationRequest) (ElicitationResponse, error) {
	id := req.ElicitationID
	if id == "" {
		id = uuid.NewString()
	}

	ch := make(chan ElicitationResponse, 1)
	b.mu.Lock()
	b.pending[id] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return ElicitationResponse{}, ctx.Err()
	}
}

// Resolve delivers resp to the pending Request waiting on
// elicitationID. It returns an error if no request is pending under
// that ID (already resolved, timed out, or never issued).
func (b *Broker) Resolve(elicitationID string, resp ElicitationResponse) error {
	b.mu.Lock()
	ch, ok := b.pending[elicitationID]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("a2a: no pending elicitation %q", elicitationID)
	}
	ch <- resp
	return nil
}
