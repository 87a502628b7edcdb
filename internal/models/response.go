package models

// Part is one block of content inside a request entry
type Part struct {
	Text string `json:"text"`
}

// Content is one role-tagged entry of a generate request
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// GenerateRequest is the body sent to the generateContent endpoint
type GenerateRequest struct {
	Contents []Content `json:"contents"`
}

// NewGenerateRequest maps turns to request entries, one per turn, in order
func NewGenerateRequest(turns []Turn) GenerateRequest {
	contents := make([]Content, 0, len(turns))
	for _, t := range turns {
		contents = append(contents, Content{
			Role:  t.Role.String(),
			Parts: []Part{{Text: t.Content}},
		})
	}
	return GenerateRequest{Contents: contents}
}
