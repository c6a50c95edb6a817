package core

// ReplyTemplate is the fixed reply scaffold for one intent: greeting,
// acknowledgment, ordered next-step statements, closing.
type ReplyTemplate struct {
	Greeting       string
	Acknowledgment string
	NextSteps      []string
	Closing        string
}

// TemplateCatalog is an immutable intent-to-template table injected into the
// response composer at construction. The generic template is the deferral
// reply used when no intent template applies.
type TemplateCatalog struct {
	templates   map[Intent]ReplyTemplate
	disclaimers map[Intent]string
	signature   []string
}

// NewTemplateCatalog builds a catalog from the given tables. The signature
// lines are appended after every template closing.
func NewTemplateCatalog(templates map[Intent]ReplyTemplate, disclaimers map[Intent]string, signature []string) *TemplateCatalog {
	t := make(map[Intent]ReplyTemplate, len(templates))
	for in, tpl := range templates {
		t[in] = tpl
	}
	d := make(map[Intent]string, len(disclaimers))
	for in, text := range disclaimers {
		d[in] = text
	}
	return &TemplateCatalog{
		templates:   t,
		disclaimers: d,
		signature:   append([]string(nil), signature...),
	}
}

// Template returns the reply template for an intent
func (c *TemplateCatalog) Template(in Intent) (ReplyTemplate, bool) {
	tpl, ok := c.templates[in]
	return tpl, ok
}

// Disclaimer returns the disclaimer text for an intent, empty when the intent
// carries none
func (c *TemplateCatalog) Disclaimer(in Intent) string {
	return c.disclaimers[in]
}

// Signature returns the sign-off lines appended to templated replies
func (c *TemplateCatalog) Signature() []string {
	return append([]string(nil), c.signature...)
}
