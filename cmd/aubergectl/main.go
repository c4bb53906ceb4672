package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/auberge/internal/apiclient"
)

type cli struct {
	Globals globals `embed:""`

	Login         loginCmd         `cmd:"" help:"Exchange credentials for a bearer token and print it."`
	Conversations conversationsCmd `cmd:"" help:"List support conversations."`
	Chat          chatCmd          `cmd:"" help:"Watch or answer a conversation."`
	Inventory     inventoryCmd     `cmd:"" help:"List products or adjust stock."`
	Orders        ordersCmd        `cmd:"" help:"List orders, change their status or tracking number."`
	Projects      projectsCmd      `cmd:"" help:"List projects or toggle a milestone."`
	Reservations  reservationsCmd  `cmd:"" help:"List reservations."`
	Dashboard     dashboardCmd     `cmd:"" help:"Print the dashboard headline figures."`
	Upload        uploadCmd        `cmd:"" help:"Attach a file to a project."`
	Ask           askCmd           `cmd:"" help:"Ask the site assistant a question, as a guest would."`
}

type globals struct {
	API     string        `name:"api" required:"" env:"AUBERGE_API_URL,NEXT_PUBLIC_API_URL" help:"Backend base URL."`
	HotelID string        `name:"hotel" env:"AUBERGE_HOTEL_ID,NEXT_PUBLIC_HOTEL_ID" help:"Hotel the reservation endpoints are scoped to."`
	Token   string        `env:"AUBERGE_TOKEN" help:"Bearer token (see the login command)."`
	Timeout time.Duration `default:"15s" help:"Backend request timeout."`
	YAML    bool          `name:"yaml" help:"Print results as YAML instead of a table."`
}

func (g *globals) client() (*apiclient.Client, error) {
	return apiclient.New(apiclient.Config{
		BaseURL:    g.API,
		HotelID:    g.HotelID,
		Token:      g.Token,
		HTTPClient: &http.Client{Timeout: g.Timeout},
	})
}

// authed returns a client and fails early without a token.
func (g *globals) authed() (*apiclient.Client, error) {
	if g.Token == "" {
		return nil, fmt.Errorf("aubergectl: no token, run `aubergectl login` and export AUBERGE_TOKEN")
	}
	return g.client()
}

// print writes v as YAML when requested, otherwise calls table.
func (g *globals) print(v any, table func(w io.Writer)) error {
	if g.YAML {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("aubergectl"),
		kong.Description("Operator CLI for the hotel and café back-office."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run(&c.Globals)
	kctx.FatalIfErrorf(err)
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02.01.2006")
}
