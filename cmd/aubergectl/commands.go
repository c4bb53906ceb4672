package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/chat"
	"github.com/erazemk/auberge/internal/dashboard"
	"github.com/erazemk/auberge/internal/inventory"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
	"github.com/erazemk/auberge/internal/orders"
	"github.com/erazemk/auberge/internal/poller"
	"github.com/erazemk/auberge/internal/projects"
	"github.com/erazemk/auberge/internal/reservations"
	"github.com/erazemk/auberge/internal/uploads"
)

type loginCmd struct {
	Email    string `arg:"" help:"Account e-mail."`
	Password string `env:"AUBERGE_PASSWORD" help:"Password. Read from stdin when empty."`
}

func (cmd *loginCmd) Run(ctx context.Context, g *globals) error {
	password := cmd.Password
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("aubergectl: read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	api, err := g.client()
	if err != nil {
		return err
	}
	resp, err := api.Login(ctx, cmd.Email, password)
	if err != nil {
		return fmt.Errorf("aubergectl: login: %s", apiclient.Message(err))
	}
	user := resp.User
	if user.ID == 0 {
		if user, err = api.WithToken(resp.BearerToken()).Me(ctx); err != nil {
			return fmt.Errorf("aubergectl: load user: %s", apiclient.Message(err))
		}
	}
	if !model.RoleIn(user.Role, model.BackOffice...) {
		return fmt.Errorf("aubergectl: %s is not a back-office account", cmd.Email)
	}
	fmt.Fprintf(os.Stderr, "Logged in as %s (%s).\n", user.Name, user.Role)
	fmt.Printf("export AUBERGE_TOKEN=%s\n", resp.BearerToken())
	return nil
}

type conversationsCmd struct {
	Status string `help:"Only conversations with this status."`
	Query  string `arg:"" optional:"" help:"Filter by name, e-mail or last message."`
}

func (cmd *conversationsCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.authed()
	if err != nil {
		return err
	}
	s := chat.NewSession(api)
	defer s.Close()
	if err := s.LoadConversations(ctx, loader.Visible); err != nil {
		return err
	}
	convs := s.FilterConversations(cmd.Query, cmd.Status)
	return g.print(convs, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tCLIENT\tSTATUS\tUNREAD\tLAST MESSAGE")
		for _, c := range convs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", c.ID, c.UserName, c.Status, c.UnreadAdmin, c.LastMessage)
		}
	})
}

type chatCmd struct {
	Watch chatWatchCmd `cmd:"" help:"Print the messages of a conversation as they arrive."`
	Send  chatSendCmd  `cmd:"" help:"Answer a conversation."`
	Close chatCloseCmd `cmd:"" help:"Close a conversation."`
}

type chatWatchCmd struct {
	ID       int64         `arg:"" help:"Conversation id."`
	Interval time.Duration `default:"3s" help:"Polling interval."`
}

func (cmd *chatWatchCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.authed()
	if err != nil {
		return err
	}
	s := chat.NewSession(api).WithIntervals(cmd.Interval, poller.ConversationsInterval)
	defer s.Close()

	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	s.OnChange(func(snap chat.Snapshot) {
		if snap.Selected != cmd.ID {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		for _, m := range snap.Messages {
			if m.ID == 0 || seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			who := m.SenderName
			if who == "" {
				who = m.SenderRole
			}
			fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), who, m.Content)
		}
	})

	if err := s.Select(ctx, cmd.ID); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

type chatSendCmd struct {
	ID      int64    `arg:"" help:"Conversation id."`
	Message []string `arg:"" help:"Message text."`
}

func (cmd *chatSendCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.authed()
	if err != nil {
		return err
	}
	s := chat.NewSession(api)
	defer s.Close()
	if err := s.Open(ctx, cmd.ID); err != nil {
		return err
	}
	s.SetDraft(strings.Join(cmd.Message, " "))
	msg, err := s.Send(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Sent message %d.\n", msg.ID)
	return nil
}

type chatCloseCmd struct {
	ID int64 `arg:"" help:"Conversation id."`
}

func (cmd *chatCloseCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.authed()
	if err != nil {
		return err
	}
	s := chat.NewSession(api)
	defer s.Close()
	if err := s.LoadConversations(ctx, loader.Silent); err != nil {
		return err
	}
	if err := s.CloseConversation(ctx, cmd.ID); err != nil {
		return err
	}
	fmt.Printf("Closed conversation %d.\n", cmd.ID)
	return nil
}

type inventoryCmd struct {
	List   inventoryListCmd   `cmd:"" default:"withargs" help:"List products."`
	Show   inventoryShowCmd   `cmd:"" help:"Show a product and its stock movements."`
	Adjust inventoryAdjustCmd `cmd:"" help:"Add or remove stock."`
}

type inventoryListCmd struct {
	Low    bool   `help:"Only products at or below their threshold."`
	Status string `help:"Only products with this status."`
	Query  string `arg:"" optional:"" help:"Filter by SKU or name."`
}

func (cmd *inventoryListCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.authed()
	if err != nil {
		return err
	}
	cat := inventory.NewCatalog(api)
	if _, err := cat.Load(ctx, loader.Visible); err != nil {
		return err
	}
	products := cat.Filter(inventory.Filter{Query: cmd.Query, Status: cmd.Status, LowStockOnly: cmd.Low})
	return g.print(products, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tSKU\tNAME\tCATEGORY\tSTOCK\tTHRESHOLD\tSTATUS")
		for _, p := range products {
			low := ""
			if p.LowStock() {
				low = " !"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d%s\t%d\t%s\n",
				p.ID, p.SKU, p.Name, cat.CategoryName(p.CategoryID), p.StockQuantity, low, p.LowStockThreshold, p.Status)
		}
	})
}

type inventoryShowCmd struct {
	ID int64 `arg:"" help:"Product id."`
}

func (cmd *inventoryShowCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.authed()
	if err != nil {
		return err
	}
	p, err := api.GetProduct(ctx, cmd.ID)
	if err != nil {
		return err
	}
	moves, err := inventory.NewCatalog(api).Movements(ctx, cmd.ID)
	if err != nil {
		return err
	}
	out := struct {
		Product   model.Product         `yaml:"product"`
		Movements []model.StockMovement `yaml:"movements"`
	}{p, moves}
	return g.print(out, func(w io.Writer) {
		fmt.Fprintf(w, "%s\t%s\n", p.SKU, p.Name)
		fmt.Fprintf(w, "stock\t%d (threshold %d)\n", p.StockQuantity, p.LowStockThreshold)
		fmt.Fprintf(w, "price\t%.2f\n\n", p.Price)
		fmt.Fprintln(w, "DATE\tDELTA\tREASON")
		for _, m := range moves {
			fmt.Fprintf(w, "%s\t%+d\t%s\n", date(m.CreatedAt.Time), m.Delta, m.Reason)
		}
	})
}

type inventoryAdjustCmd struct {
	ID     int64  `arg:"" help:"Product id."`
	Delta  int    `arg:"" help:"Stock change, negative to remove."`
	Reason string `default:"adjustment" help:"Reason recorded with the movement."`
}

func (cmd *inventoryAdjustCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.authed()
	if err != nil {
		return err
	}
	cat := inventory.NewCatalog(api)
	if _, err := cat.Load(ctx, loader.Silent); err != nil {
		return err
	}
	p, err := cat.Adjust(ctx, cmd.ID, cmd.Delta, cmd.Reason)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d in stock.\n", p.Name, p.StockQuantity)
	return nil
}

type ordersCmd struct {
	List     ordersListCmd     `cmd:"" default:"withargs" help:"List orders."`
	Status   ordersStatusCmd   `cmd:"" help:"Change an order's status."`
	Tracking ordersTrackingCmd `cmd:"" help:"Set an order's tracking number."`
}

type ordersListCmd struct {
	Status  string `help:"Only orders with this status."`
	Payment string `help:"Only orders with this payment status."`
	Query   string `arg:"" optional:"" help:"Filter by number, customer or e-mail."`
}

func (cmd *ordersListCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.authed()
	if err != nil {
		return err
	}
	desk := orders.NewDesk(api)
	if _, err := desk.Load(ctx, loader.Visible); err != nil {
		return err
	}
	list := desk.Filter(orders.Filter{Query: cmd.Query, Status: cmd.Status, PaymentStatus: cmd.Payment})
	return g.print(list, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNUMBER\tCUSTOMER\tTOTAL\tSTATUS\tPAYMENT\tTRACKING\tDATE")
		for _, o := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\t%s\t%s\t%s\n",
				o.ID, o.Number, o.CustomerName, o.Total, o.Status, o.PaymentStatus, o.TrackingNumber, date(o.CreatedAt.Time))
		}
	})
}

type ordersStatusCmd struct {
	ID     int64  `arg:"" help:"Order id."`
	Status string `arg:"" help:"New status."`
}

func (cmd *ordersStatusCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.authed()
	if err != nil {
		return err
	}
	o, err := orders.NewDesk(api).UpdateStatus(ctx, cmd.ID, cmd.Status)
	if err != nil {
		return err
	}
	fmt.Printf("Order %s is now %s.\n", o.Number, o.Status)
	return nil
}

type ordersTrackingCmd struct {
	ID     int64  `arg:"" help:"Order id."`
	Number string `arg:"" help:"Carrier tracking number."`
}

func (cmd *ordersTrackingCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.authed()
	if err != nil {
		return err
	}
	o, err := orders.NewDesk(api).SetTrackingNumber(ctx, cmd.ID, cmd.Number)
	if err != nil {
		return err
	}
	fmt.Printf("Order %s tracking number set to %s.\n", o.Number, o.TrackingNumber)
	return nil
}

type projectsCmd struct {
	List   projectsListCmd   `cmd:"" default:"withargs" help:"List projects."`
	Toggle projectsToggleCmd `cmd:"" help:"Toggle a milestone."`
}

type projectsListCmd struct {
	Status string `help:"Only projects with this status."`
	Query  string `arg:"" optional:"" help:"Filter by title or client."`
}

func (cmd *projectsListCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.authed()
	if err != nil {
		return err
	}
	board := projects.NewBoard(api)
	if err := board.Load(ctx, loader.Visible); err != nil {
		return err
	}
	list := board.Filter(cmd.Query, cmd.Status)
	return g.print(list, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tTITLE\tCLIENT\tSTATUS\tPROGRESS\tDUE")
		for _, p := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d%%\t%s\n",
				p.ID, p.Title, p.ClientName, p.Status, projects.Progress(p.Milestones), date(p.DueDate.Time))
		}
	})
}

type projectsToggleCmd struct {
	Project   int64 `arg:"" help:"Project id."`
	Milestone int64 `arg:"" help:"Milestone id."`
}

func (cmd *projectsToggleCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.authed()
	if err != nil {
		return err
	}
	board := projects.NewBoard(api)
	if _, err := board.LoadOne(ctx, cmd.Project); err != nil {
		return err
	}
	m, err := board.ToggleMilestone(ctx, cmd.Project, cmd.Milestone)
	if err != nil {
		return err
	}
	state := "open"
	if m.Completed {
		state = "completed"
	}
	fmt.Printf("Milestone %q is now %s.\n", m.Title, state)
	return nil
}

type reservationsCmd struct {
	Status string `help:"Only reservations with this status."`
	From   string `help:"Stays ending on or after this date (YYYY-MM-DD)."`
	To     string `help:"Stays starting on or before this date (YYYY-MM-DD)."`
	Query  string `arg:"" optional:"" help:"Filter by guest or room."`
}

func (cmd *reservationsCmd) Run(ctx context.Context, g *globals) error {
	f := reservations.Filter{Query: cmd.Query, Status: cmd.Status}
	var err error
	if cmd.From != "" {
		if f.From, err = time.ParseInLocation(time.DateOnly, cmd.From, time.Local); err != nil {
			return fmt.Errorf("aubergectl: --from: %w", err)
		}
	}
	if cmd.To != "" {
		if f.To, err = time.ParseInLocation(time.DateOnly, cmd.To, time.Local); err != nil {
			return fmt.Errorf("aubergectl: --to: %w", err)
		}
	}

	api, err := g.authed()
	if err != nil {
		return err
	}
	ledger := reservations.NewLedger(api)
	if _, err := ledger.Load(ctx, loader.Visible); err != nil {
		return err
	}
	list := ledger.Filter(f)
	return g.print(list, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tGUEST\tROOM\tCHECK-IN\tCHECK-OUT\tGUESTS\tSTATUS")
		for _, r := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
				r.ID, r.GuestName, r.Room, date(r.CheckIn.Time), date(r.CheckOut.Time), r.Guests, r.Status)
		}
	})
}

type dashboardCmd struct {
	Watch    bool          `help:"Keep refreshing until interrupted."`
	Interval time.Duration `default:"30s" help:"Refresh interval with --watch."`
}

func (cmd *dashboardCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.authed()
	if err != nil {
		return err
	}
	o := dashboard.NewOverview(api, cmd.Interval)
	show := func(d dashboard.Data) {
		fmt.Printf("%s  stays %d · pending %d · orders %d (%d to process) · revenue %.2f € · unread chats %d · low stock %d",
			d.LoadedAt.Format("15:04:05"),
			d.ReservationStats.Active, d.ReservationStats.Pending,
			d.OrderStats.Count, d.OrderStats.Pending, d.OrderStats.Revenue,
			len(d.UnreadConversations), len(d.LowStock))
		if len(d.Degraded) > 0 {
			fmt.Printf(" · degraded: %s", strings.Join(d.Degraded, ", "))
		}
		fmt.Println()
	}

	d, err := o.Load(ctx, loader.Visible)
	if err != nil {
		return err
	}
	if !cmd.Watch {
		if g.YAML {
			return g.print(d, nil)
		}
		show(d)
		return nil
	}
	show(d)
	o.OnChange(show)
	o.StartRefresh(ctx)
	defer o.StopRefresh()
	<-ctx.Done()
	return nil
}

type uploadCmd struct {
	Project int64  `arg:"" help:"Project id."`
	Path    string `arg:"" type:"existingfile" help:"File to attach."`
}

func (cmd *uploadCmd) Run(ctx context.Context, g *globals) error {
	data, err := os.ReadFile(cmd.Path)
	if err != nil {
		return err
	}
	file, err := uploads.Prepare(cmd.Path, data)
	if err != nil {
		return err
	}

	api, err := g.authed()
	if err != nil {
		return err
	}
	board := projects.NewBoard(api)
	if _, err := board.LoadOne(ctx, cmd.Project); err != nil {
		return err
	}
	pf, err := board.AttachFile(ctx, cmd.Project, file.Name, file.MIME, file.Data)
	if err != nil {
		return err
	}
	fmt.Printf("Attached %s (%s, %d bytes).\n", pf.Name, file.MIME, len(file.Data))
	return nil
}

type askCmd struct {
	Session  string   `help:"Assistant session id to continue a conversation."`
	Question []string `arg:"" help:"Question text."`
}

func (cmd *askCmd) Run(ctx context.Context, g *globals) error {
	api, err := g.client()
	if err != nil {
		return err
	}
	reply, err := api.AskChatbot(ctx, strings.Join(cmd.Question, " "), cmd.Session)
	if err != nil {
		return fmt.Errorf("aubergectl: ask: %s", apiclient.Message(err))
	}
	fmt.Println(reply.Reply)
	if reply.SessionID != "" {
		fmt.Fprintf(os.Stderr, "session: %s\n", reply.SessionID)
	}
	return nil
}
