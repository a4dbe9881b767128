package geminirender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"haggle/internal/adapter/render"
	"haggle/internal/app/ports"
	"haggle/internal/domain/negotiation"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.0-flash-001"

var (
	ErrEmptyResponse = errors.New("empty response from gemini")
	ErrOfferMissing  = errors.New("gemini reply does not state the decided offer")
)

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Renderer asks a Gemini model to phrase an already-made decision. A reply
// that drops the decided price is rejected so the caller can fall back.
type Renderer struct {
	model  generator
	client *genai.Client
}

func New(ctx context.Context, apiKey, modelName string) (*Renderer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	return &Renderer{model: model, client: client}, nil
}

func (r *Renderer) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

type reply struct {
	Message string `json:"message"`
}

func (r *Renderer) Render(ctx context.Context, req ports.RenderRequest) (string, error) {
	if req.Action != negotiation.ActionWalkAway && req.Offer == nil {
		return "", fmt.Errorf("%s decision without an offer", req.Action)
	}
	resp, err := r.model.GenerateContent(ctx, genai.Text(prompt(req)))
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	txt, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected gemini part type %T", resp.Candidates[0].Content.Parts[0])
	}

	var out reply
	if err := json.Unmarshal([]byte(txt), &out); err != nil {
		return "", fmt.Errorf("decode gemini reply: %w", err)
	}
	msg := strings.TrimSpace(out.Message)
	if msg == "" {
		return "", ErrEmptyResponse
	}
	if req.Offer != nil {
		if got, ok := negotiation.ExtractPrice(msg); !ok || !statesOffer(got, *req.Offer) {
			return "", ErrOfferMissing
		}
	}
	return msg, nil
}

// statesOffer compares at the paise precision offers are written with.
func statesOffer(got, offer float64) bool {
	if want, ok := negotiation.ExtractPrice(render.Rupees(offer)); ok && got == want {
		return true
	}
	return math.Abs(got-offer) < 0.005
}

func prompt(req ports.RenderRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, the %s in a price negotiation", speaker(req), req.Role)
	if req.Product != "" {
		fmt.Fprintf(&b, " over a %s", req.Product)
	}
	fmt.Fprintf(&b, ". Your negotiating style is %s.\n", req.Personality)
	if req.MarketPrice > 0 && req.Role == negotiation.RoleBuyer {
		fmt.Fprintf(&b, "The market price is about %s.\n", render.Rupees(req.MarketPrice))
	}

	switch req.Action {
	case negotiation.ActionAccept:
		fmt.Fprintf(&b, "You have decided to ACCEPT the other side's offer of %s.\n", render.Rupees(*req.Offer))
	case negotiation.ActionWalkAway:
		b.WriteString("You have decided to WALK AWAY without a deal. Do not mention any price.\n")
	default:
		if req.Opening {
			b.WriteString("This is your opening message. ")
		}
		fmt.Fprintf(&b, "You have decided to offer exactly %s.\n", render.Rupees(*req.Offer))
	}
	if req.Offer != nil {
		fmt.Fprintf(&b, "Write one or two sentences in character. The first number you write must be %s, written exactly like that, and no other price may appear before it.\n", render.Rupees(*req.Offer))
	} else {
		b.WriteString("Write one or two sentences in character.\n")
	}
	b.WriteString(`Respond in JSON only: {"message": "..."}`)
	return b.String()
}

func speaker(req ports.RenderRequest) string {
	if req.SpeakerName != "" {
		return req.SpeakerName
	}
	return "the " + string(req.Role)
}
