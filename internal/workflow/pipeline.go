package workflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"auditflow/internal/audit"
	"auditflow/internal/llm"
	"auditflow/internal/render"
)

// Apology replaces the reply whenever generation fails.
const Apology = "Je suis désolé, je n'ai pas pu traiter votre demande. Veuillez réessayer plus tard."

// Reply is the outcome of one turn.
type Reply struct {
	Phase audit.Phase
	Text  string
	// Degraded is set when the gateway failed and Text is the apology.
	Degraded bool
	// Malformed is set when a structured phase could not parse the
	// generated text and rendered a default record instead.
	Malformed bool
}

// Pipeline runs one turn: classify, extract context, generate, parse, render.
type Pipeline struct {
	classifier *audit.Classifier
	gen        llm.Gateway
	log        *log.Logger
	now        func() time.Time
}

type Option func(*Pipeline)

func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithClock overrides the time source used for report dates.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func New(c *audit.Classifier, gen llm.Gateway, opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: c,
		gen:        gen,
		log:        log.Default(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pipeline) Classifier() *audit.Classifier { return p.classifier }

// Respond produces the assistant reply for input. history holds the turns
// before input. Respond never returns an error: gateway failures become the
// apology text, with the phase still reported.
func (p *Pipeline) Respond(ctx context.Context, input string, history audit.History) Reply {
	phase := p.classifier.Classify(input, history)
	ctx = llm.WithPhase(ctx, string(phase))

	reply, err := p.respond(ctx, phase, input, history)
	if err != nil {
		p.log.Printf("workflow: phase=%s generation failed: %v", phase, err)
		return Reply{Phase: phase, Text: Apology, Degraded: true}
	}
	if reply.Malformed {
		p.log.Printf("workflow: phase=%s generated text did not parse, rendering defaults", phase)
	}
	return reply
}

func (p *Pipeline) respond(ctx context.Context, phase audit.Phase, input string, history audit.History) (Reply, error) {
	v := p.classifier.Vocabulary()
	out := Reply{Phase: phase}

	switch phase {
	case audit.PhaseQuestions:
		raw, err := p.generate(ctx, phase, audit.PromptData{MissionDescription: input})
		if err != nil {
			return out, err
		}
		questions := audit.ParseQuestions(raw)
		out.Malformed = len(questions) == 0
		out.Text = render.QuestionsText(questions)

	case audit.PhaseScoping:
		// The current input answers the last clarification question.
		answered := history.Append(audit.UserTurn(input, p.now()))
		raw, err := p.generate(ctx, phase, audit.PromptData{
			MissionDescription: audit.InitialMissionDescription(history),
			QAText:             audit.FormatQAPairs(audit.ExtractQAPairs(answered)),
		})
		if err != nil {
			return out, err
		}
		rec, ok := audit.ParseCadrage(raw)
		out.Malformed = !ok
		out.Text = render.Reply(render.CadrageTable(rec))

	case audit.PhaseChecklist:
		raw, err := p.generate(ctx, phase, audit.PromptData{Data: audit.JSONData(audit.PriorCadrage(history, v))})
		if err != nil {
			return out, err
		}
		items, ok := audit.ParseChecklist(raw)
		out.Malformed = !ok
		out.Text = render.Reply(render.ChecklistTable(items))

	case audit.PhaseFinding:
		raw, err := p.generate(ctx, phase, audit.PromptData{
			Input: input,
			Data:  audit.JSONData(audit.MissionContextFrom(history, v)),
		})
		if err != nil {
			return out, err
		}
		rec, ok := audit.ParseFinding(raw)
		out.Malformed = !ok
		out.Text = render.Reply(render.FindingTable(rec))

	case audit.PhaseSynthesis:
		raw, err := p.generate(ctx, phase, audit.PromptData{Data: audit.JSONData(audit.CompileMission(history, v))})
		if err != nil {
			return out, err
		}
		out.Text = audit.CleanProse(raw)
		if out.Text == "" {
			return out, fmt.Errorf("%w: empty synthesis", llm.ErrUnavailable)
		}

	case audit.PhaseReport:
		out.Text = render.ReportHTML(p.BuildReport(history))

	default:
		text, err := p.gen.Chat(ctx, input, toMessages(history.Tail(audit.ChatHistoryTurns)))
		if err != nil {
			return out, err
		}
		out.Text = text
	}
	return out, nil
}

func (p *Pipeline) generate(ctx context.Context, phase audit.Phase, data audit.PromptData) (string, error) {
	prompt, err := audit.BuildPrompt(phase, data)
	if err != nil {
		return "", err
	}
	return p.gen.Generate(ctx, prompt.Text, prompt.System, prompt.Temperature)
}

func toMessages(h audit.History) []llm.Message {
	out := make([]llm.Message, 0, len(h))
	for _, t := range h {
		role := llm.RoleUser
		if t.IsAssistant() {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: t.Text})
	}
	return out
}
