package web

import (
	"html/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/refset/churnform/internal/churn"
)

const (
	retainMessage = "✅ The customer is likely to **stay**. Great job keeping them happy!"
	churnMessage  = "⚠️ The customer is likely to **churn**. Time to act!"
	retentionTip  = "💡 Tip: Engage this customer with offers or personalized support."
)

// resultView is the rendered outcome of one submission
type resultView struct {
	ID        string
	Outcome   string
	Retain    bool
	Message   template.HTML
	Tip       template.HTML
	Snow      bool
	Fireworks bool
}

// presenter turns predictions into result views. Messages are rendered
// from markdown once.
type presenter struct {
	retain template.HTML
	churn  template.HTML
	tip    template.HTML
	// whether the fireworks animation loaded at startup
	fireworks bool
}

func newPresenter(fireworks bool) *presenter {
	return &presenter{
		retain:    renderMarkdown(retainMessage),
		churn:     renderMarkdown(churnMessage),
		tip:       renderMarkdown(retentionTip),
		fireworks: fireworks,
	}
}

func (p *presenter) present(id string, pred churn.Prediction) *resultView {
	v := &resultView{
		ID:      id,
		Outcome: pred.Outcome.String(),
	}
	switch pred.Outcome {
	case churn.OutcomeRetain:
		v.Retain = true
		v.Message = p.retain
		v.Snow = true
		v.Fireworks = p.fireworks
	default:
		v.Message = p.churn
		v.Tip = p.tip
	}
	return v
}

func renderMarkdown(md string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return template.HTML(markdown.ToHTML([]byte(md), p, r))
}
