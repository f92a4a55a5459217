package snapcatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultVisionPrompt asks the model for one "<type>;<name>;<note>" line per screenshot.
const DefaultVisionPrompt = `You will receive a set of screenshots shared on social media.
Each one refers to a location, a person, or a company. Identify the subject of
every screenshot and answer with exactly one line per screenshot in this form:

<subject type>;<subject name>;<source>, <additional source info>

<subject type> — one of "location", "person", "company", or "unknown" when the
subject is unclear.

<subject name> — the name of the location, person, or company. For a location
you may add identifying details such as the city or street address.

<source> — who shared it. Prefer the account handle, written with "@", as seen
on the screenshot (top left of an Instagram story, above a screenshotted post,
above a tweet). If no account is visible, name the platform (Twitter,
Instagram, TikTok, ...).

<additional source info> — optional, separated from the source by ", ". For a
location: recommended dishes or anything said about it. For a person: where
they work or why they are notable. For a company: what it does. Put any
commentary quoted from the source in double quotes.

Do not number the lines and do not add any other text.

Example answer:
location;Mala Project, 122 1st Ave., New York, NY 10009;Shared on Instagram
person;Anthony Bourdain;Shared on Twitter
location;Black Fox Coffee, New York;Shared on Twitter by @myfriend
company;OpenAI;Shared on Twitter, U.S. based AI research organization
location;Udupi Palace;Shared on Instagram by @myfriend, "Get the podi dosa!"`

// OpenAI vision defaults.
const (
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1"
	DefaultVisionModel     = "gpt-4o"
	DefaultVisionMaxTokens = 300
)

// OpenAIVision classifies screenshots with an OpenAI-compatible
// chat completions endpoint.
type OpenAIVision struct {
	BaseURL   string // default: DefaultOpenAIBaseURL
	APIKey    string
	Model     string // default: DefaultVisionModel
	MaxTokens int    // default: DefaultVisionMaxTokens
	Detail    string // image detail hint: "low", "high" or "auto" (default: provider default)

	client *resty.Client
}

// NewOpenAIVision creates a vision client. apiKey is sent as a bearer token.
func NewOpenAIVision(apiKey string, opts HTTPOptions) *OpenAIVision {
	return &OpenAIVision{
		APIKey: apiKey,
		client: NewRESTClient(opts),
	}
}

type oaImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type oaContent struct {
	Type     string      `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL *oaImageURL `json:"image_url,omitempty"`
}

type oaMessage struct {
	Role    string      `json:"role"`
	Content []oaContent `json:"content"`
}

type oaReq struct {
	Model     string      `json:"model"`
	Messages  []oaMessage `json:"messages"`
	MaxTokens int         `json:"max_tokens"`
}

type oaResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (v *OpenAIVision) defaults() {
	if v.BaseURL == "" {
		v.BaseURL = DefaultOpenAIBaseURL
	}
	if v.Model == "" {
		v.Model = DefaultVisionModel
	}
	if v.MaxTokens <= 0 {
		v.MaxTokens = DefaultVisionMaxTokens
	}
	if v.client == nil {
		v.client = NewRESTClient(HTTPOptions{})
	}
}

// encodeRequest builds the chat request: the prompt first, then one
// image_url part per screenshot.
func (v *OpenAIVision) encodeRequest(prompt string, images []Image) oaReq {
	content := make([]oaContent, 0, len(images)+1)
	content = append(content, oaContent{Type: "text", Text: prompt})
	for _, img := range images {
		content = append(content, oaContent{
			Type:     "image_url",
			ImageURL: &oaImageURL{URL: img.DataURL(), Detail: v.Detail},
		})
	}
	return oaReq{
		Model:     v.Model,
		Messages:  []oaMessage{{Role: "user", Content: content}},
		MaxTokens: v.MaxTokens,
	}
}

// Classify sends prompt and images in a single user message and returns the
// model's text answer.
func (v *OpenAIVision) Classify(ctx context.Context, prompt string, images []Image) (string, error) {
	v.defaults()

	req := v.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(v.encodeRequest(prompt, images))
	if v.APIKey != "" {
		req.SetAuthToken(v.APIKey)
	}

	res, err := req.Post(strings.TrimRight(v.BaseURL, "/") + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	if !res.IsSuccess() {
		return "", UpstreamFromResponse("vision", res)
	}

	var out oaResp
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return "", &UpstreamError{Service: "vision", Message: "decode response: " + err.Error()}
	}
	if len(out.Choices) == 0 {
		return "", &UpstreamError{Service: "vision", Message: "response has no choices"}
	}
	return out.Choices[0].Message.Content, nil
}
