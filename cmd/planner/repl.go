package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/pkordes/travel-companion/internal/apiclient"
	"github.com/pkordes/travel-companion/internal/domain"
)

const helpText = `Commands:
  /trips            list trips
  /new <name>       create a trip and switch to it
  /use <name>       switch to a trip and show its conversation
  /refresh          rebuild the itinerary from the conversation
  /itinerary        show the itinerary by day
  /delete <name>    delete a trip
  /help             show this help
  /quit             exit
Anything else is sent to the assistant.`

// timeLayout matches the form the assistant writes times in.
const timeLayout = "3:04 PM"

var (
	promptColor = color.New(color.FgGreen, color.Bold)
	replyColor  = color.New(color.FgCyan)
	dayColor    = color.New(color.FgYellow, color.Bold)
	errColor    = color.New(color.FgRed)
)

// planner holds the REPL state: the API client and the trip in use.
type planner struct {
	api     *apiclient.Client
	out     io.Writer
	current string
}

func newPlanner(api *apiclient.Client, out io.Writer) *planner {
	return &planner{api: api, out: out}
}

// run reads lines from in until EOF, /quit, or ctx is done.
func (p *planner) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		p.prompt()
		if !scanner.Scan() {
			fmt.Fprintln(p.out)
			return scanner.Err()
		}
		if !p.handle(ctx, scanner.Text()) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (p *planner) prompt() {
	if p.current == "" {
		promptColor.Fprint(p.out, "> ")
		return
	}
	promptColor.Fprintf(p.out, "%s> ", p.current)
}

// handle executes one input line and reports whether the REPL should go on.
func (p *planner) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if !strings.HasPrefix(line, "/") {
		p.send(ctx, line)
		return true
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		return false
	case "/help":
		fmt.Fprintln(p.out, helpText)
	case "/trips":
		p.listTrips(ctx)
	case "/new":
		p.newTrip(ctx, arg)
	case "/use":
		p.useTrip(ctx, arg)
	case "/refresh":
		p.refresh(ctx)
	case "/itinerary":
		p.showItinerary(ctx)
	case "/delete":
		p.deleteTrip(ctx, arg)
	default:
		p.fail(fmt.Errorf("unknown command %s; try /help", cmd))
	}
	return true
}

func (p *planner) listTrips(ctx context.Context) {
	list, err := p.api.ListTrips(ctx, 1, 100)
	if err != nil {
		p.fail(err)
		return
	}
	if len(list.Data) == 0 {
		fmt.Fprintln(p.out, "No trips yet. Create one with /new <name>.")
		return
	}
	for _, t := range list.Data {
		marker := " "
		if t.Name == p.current {
			marker = "*"
		}
		fmt.Fprintf(p.out, "%s %s  (%d messages, %d items)\n", marker, t.Name, t.MessageCount, t.ItemCount)
	}
}

func (p *planner) newTrip(ctx context.Context, name string) {
	if name == "" {
		p.fail(errors.New("usage: /new <name>"))
		return
	}
	trip, err := p.api.CreateTrip(ctx, name)
	if err != nil {
		p.fail(err)
		return
	}
	p.current = trip.Name
	p.printMessages(trip.Messages)
}

func (p *planner) useTrip(ctx context.Context, name string) {
	if name == "" {
		p.fail(errors.New("usage: /use <name>"))
		return
	}
	trip, err := p.api.GetTrip(ctx, name)
	if err != nil {
		p.fail(err)
		return
	}
	p.current = trip.Name
	p.printMessages(trip.Messages)
}

func (p *planner) deleteTrip(ctx context.Context, name string) {
	if name == "" {
		p.fail(errors.New("usage: /delete <name>"))
		return
	}
	if err := p.api.DeleteTrip(ctx, name); err != nil {
		p.fail(err)
		return
	}
	if name == p.current {
		p.current = ""
	}
	fmt.Fprintf(p.out, "Deleted %s.\n", name)
}

func (p *planner) send(ctx context.Context, content string) {
	if !p.requireTrip() {
		return
	}
	turn, err := p.api.Send(ctx, p.current, content)
	if err != nil {
		p.fail(err)
		return
	}
	if turn.Reply != nil {
		replyColor.Fprintln(p.out, turn.Reply.Content)
	}
}

func (p *planner) refresh(ctx context.Context) {
	if !p.requireTrip() {
		return
	}
	turn, err := p.api.Refresh(ctx, p.current)
	if err != nil {
		p.fail(err)
		return
	}
	fmt.Fprintf(p.out, "Itinerary updated: %d items.\n", len(turn.Items))
	p.showItinerary(ctx)
}

func (p *planner) showItinerary(ctx context.Context) {
	if !p.requireTrip() {
		return
	}
	days, err := p.api.Itinerary(ctx, p.current)
	if err != nil {
		p.fail(err)
		return
	}
	if len(days) == 0 {
		fmt.Fprintln(p.out, "The itinerary is empty. Chat about your plans, then /refresh.")
		return
	}
	for _, d := range days {
		dayColor.Fprintln(p.out, d.Day)
		for _, it := range d.Items {
			fmt.Fprintf(p.out, "  %s-%s  %s", it.StartTime.Format(timeLayout), it.EndTime.Format(timeLayout), it.Activity)
			if it.LocationName != "" {
				fmt.Fprintf(p.out, " @ %s", it.LocationName)
			}
			fmt.Fprintln(p.out)
		}
	}
}

func (p *planner) printMessages(msgs []domain.Message) {
	for _, m := range msgs {
		if m.Role == domain.RoleUser {
			fmt.Fprintf(p.out, "you: %s\n", m.Content)
			continue
		}
		replyColor.Fprintln(p.out, m.Content)
	}
}

func (p *planner) requireTrip() bool {
	if p.current == "" {
		p.fail(errors.New("no trip selected; use /new <name> or /use <name>"))
		return false
	}
	return true
}

func (p *planner) fail(err error) {
	errColor.Fprintf(p.out, "Error: %v\n", err)
}
