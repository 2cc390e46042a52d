package templates

import (
	"regexp"
	"strconv"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*(\d+)\s*\}\}`)

// Resolver turns stored template components plus campaign overrides into the
// provider "components" array. It performs no I/O.
type Resolver struct {
	// baseURL qualifies relative media paths. Empty means relative paths pass through.
	baseURL string
}

func NewResolver(publicBaseURL string) Resolver {
	return Resolver{baseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")}
}

// Resolve never fails: missing inputs degrade the payload and are reported in Gaps.
func (r Resolver) Resolve(components []Component, o Overrides) Resolution {
	var out Resolution
	for _, comp := range components {
		switch strings.ToUpper(comp.Type) {
		case ComponentHeader:
			if c, ok := r.header(comp, o, &out.Gaps); ok {
				out.Components = append(out.Components, c)
			}
		case ComponentBody:
			if c, ok := body(comp, o); ok {
				out.Components = append(out.Components, c)
			}
		case ComponentButtons:
			out.Components = append(out.Components, buttons(comp, o)...)
		}
	}
	return out
}

func (r Resolver) header(comp Component, o Overrides, gaps *[]string) (SendComponent, bool) {
	format := strings.ToUpper(comp.Format)

	var override string
	switch format {
	case FormatImage:
		override = o.HeaderImageURL
	case FormatVideo:
		override = o.HeaderVideoURL
	case FormatDocument:
		override = o.HeaderDocURL
	default:
		// text headers carry no parameters
		return SendComponent{}, false
	}

	link := strings.TrimSpace(override)
	if link == "" && comp.Example != nil && len(comp.Example.HeaderHandle) > 0 {
		link = comp.Example.HeaderHandle[0]
	}
	if link == "" {
		*gaps = append(*gaps, "header "+strings.ToLower(format)+" url missing")
		return SendComponent{}, false
	}

	link, ok := r.PublicURL(link)
	if !ok {
		*gaps = append(*gaps, "public base url not configured; relative media path sent as-is")
	}

	media := &Media{Link: link}
	p := Parameter{Type: strings.ToLower(format)}
	switch format {
	case FormatImage:
		p.Image = media
	case FormatVideo:
		p.Video = media
	case FormatDocument:
		p.Document = media
	}
	return SendComponent{Type: "header", Parameters: []Parameter{p}}, true
}

// PublicURL qualifies a relative path against the base URL.
// ok is false when the path is relative and no base URL is configured.
func (r Resolver) PublicURL(path string) (string, bool) {
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return path, true
	}
	if r.baseURL == "" {
		return path, false
	}
	return r.baseURL + "/" + strings.TrimLeft(path, "/"), true
}

// PlaceholderCount returns the highest positional placeholder index in text.
func PlaceholderCount(text string) int {
	n := 0
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		i, err := strconv.Atoi(m[1])
		if err == nil && i > n {
			n = i
		}
	}
	return n
}

func body(comp Component, o Overrides) (SendComponent, bool) {
	n := PlaceholderCount(comp.Text)
	if n == 0 {
		return SendComponent{}, false
	}
	params := make([]Parameter, n)
	for i := range params {
		v := ""
		if i < len(o.BodyParams) {
			v = o.BodyParams[i]
		}
		params[i] = Parameter{Type: "text", Text: v}
	}
	return SendComponent{Type: "body", Parameters: params}, true
}

func buttons(comp Component, o Overrides) []SendComponent {
	var out []SendComponent
	for i, btn := range comp.Buttons {
		custom, hasCustom := o.button(i)
		switch strings.ToUpper(btn.Type) {
		case ButtonQuickReply:
			payload := btn.Text
			if hasCustom && custom.Payload != "" {
				payload = custom.Payload
			}
			if payload == "" {
				payload = "reply_" + strconv.Itoa(i)
			}
			out = append(out, SendComponent{
				Type:       "button",
				SubType:    "quick_reply",
				Index:      strconv.Itoa(i),
				Parameters: []Parameter{{Type: "payload", Payload: payload}},
			})
		case ButtonURL:
			if len(btn.Example) == 0 {
				continue
			}
			text := btn.Example[0]
			if hasCustom && custom.Text != "" {
				text = custom.Text
			}
			out = append(out, SendComponent{
				Type:       "button",
				SubType:    "url",
				Index:      strconv.Itoa(i),
				Parameters: []Parameter{{Type: "text", Text: text}},
			})
		}
	}
	return out
}
