package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ds124wfegd/eventhive/internal/appClient"
	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/ds124wfegd/eventhive/internal/navigation"
	"github.com/ds124wfegd/eventhive/internal/pager"
	"github.com/ds124wfegd/eventhive/internal/worker"
)

type cli struct {
	app *appClient.App
	out io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, c *cli, args []string) error
}

var errUsage = errors.New("wrong arguments")

var commands = map[string]command{
	"register":       {"<name> <email> <password>  create an account and log in", cmdRegister},
	"login":          {"<email> <password>  start a session", cmdLogin},
	"logout":         {"end the session", cmdLogout},
	"whoami":         {"show the logged in user", cmdWhoami},
	"profile":        {"<name>  rename the logged in user", cmdProfile},
	"events":         {"[-page N]  list events", cmdEvents},
	"event":          {"[-from home|bookings] <id>  show one event", cmdEvent},
	"share":          {"<id>  print the share text of an event", cmdShare},
	"book":           {"<id> <quantity>  book seats", cmdBook},
	"bookings":       {"[-page N]  list bookings (all of them for admins)", cmdBookings},
	"cancel":         {"[-page N] <id>  cancel a booking", cmdCancel},
	"toggle":         {"[-page N] <id>  flip a booking's status (admin)", cmdToggle},
	"delete-booking": {"[-page N] <id>  delete a booking", cmdDeleteBooking},
	"create-event":   {"-title -description -location -date -capacity  (admin)", cmdCreateEvent},
	"update-event":   {"[fields] <id>  edit an event, unset fields keep their value (admin)", cmdUpdateEvent},
	"delete-event":   {"[-page N] <id>  delete an event (admin)", cmdDeleteEvent},
	"watch":          {"[-interval d]  print both feeds and keep them reconciled", cmdWatch},
}

func positional(args []string, n int, names string) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %s", errUsage, names)
	}
	return nil
}

func cmdRegister(ctx context.Context, c *cli, args []string) error {
	if err := positional(args, 3, "<name> <email> <password>"); err != nil {
		return err
	}
	s, err := c.app.Account.Register(ctx, entity.Registration{Name: args[0], Email: args[1], Password: args[2]})
	if err != nil {
		return err
	}
	if !s.Valid() {
		fmt.Fprintln(c.out, "Registered. Please log in.")
		return nil
	}
	fmt.Fprintf(c.out, "Registered and logged in as %s\n", s.User.Email)
	return nil
}

func cmdLogin(ctx context.Context, c *cli, args []string) error {
	if err := positional(args, 2, "<email> <password>"); err != nil {
		return err
	}
	s, err := c.app.Account.Login(ctx, entity.Credentials{Email: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Logged in as %s\n", s.User.Email)
	return nil
}

func cmdLogout(ctx context.Context, c *cli, _ []string) error {
	if err := c.app.Account.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func cmdWhoami(ctx context.Context, c *cli, _ []string) error {
	s, ok, err := c.app.Account.Current(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: not logged in", entity.ErrUnauthorized)
	}
	role := "user"
	if s.User.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(c.out, "%s <%s> (%s)\n", s.User.Name, s.User.Email, role)
	return nil
}

func cmdProfile(ctx context.Context, c *cli, args []string) error {
	if err := positional(args, 1, "<name>"); err != nil {
		return err
	}
	u, err := c.app.Account.UpdateProfile(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Profile updated: %s\n", u.Name)
	return nil
}

func pageFlags(name string) (*flag.FlagSet, *int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	page := fs.Int("page", 1, "page number")
	return fs, page
}

func cmdEvents(ctx context.Context, c *cli, args []string) error {
	fs, page := pageFlags("events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := c.app.Catalog.List(ctx, *page)
	if err != nil {
		return err
	}
	printEvents(c.out, st)
	return nil
}

func printEvents(w io.Writer, st pager.State[entity.Event]) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDATE\tLOCATION\tSEATS LEFT")
	for _, ev := range st.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", ev.ID, ev.Title, ev.Date.Display(), ev.Location, ev.Capacity)
	}
	tw.Flush()
	fmt.Fprintf(w, "Page %d of %d\n", st.CurrentPage, st.TotalPages)
}

func cmdEvent(ctx context.Context, c *cli, args []string) error {
	fs := flag.NewFlagSet("event", flag.ContinueOnError)
	from := fs.String("from", string(navigation.FromHome), "feed the event was opened from")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := positional(fs.Args(), 1, "<id>"); err != nil {
		return err
	}

	detail := c.app.Detail(fs.Arg(0), navigation.ParseProvenance(*from))
	defer detail.Close()
	ev, err := detail.Load(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%s\n\n%s\n\n", ev.Title, ev.Description)
	fmt.Fprintf(c.out, "Location:    %s\n", ev.Location)
	fmt.Fprintf(c.out, "Date:        %s\n", ev.Date.Display())
	fmt.Fprintf(c.out, "Seats left:  %d\n", ev.Capacity)
	fmt.Fprintf(c.out, "Your seats:  %d\n", detail.UserTickets())
	if !detail.CanBook() {
		fmt.Fprintln(c.out, "Sold out")
	}
	fmt.Fprintf(c.out, "Back:        %s\n", detail.Back())
	return nil
}

func cmdShare(ctx context.Context, c *cli, args []string) error {
	if err := positional(args, 1, "<id>"); err != nil {
		return err
	}
	detail := c.app.Detail(args[0], navigation.FromHome)
	defer detail.Close()
	if _, err := detail.Load(ctx); err != nil {
		return err
	}
	msg, err := detail.ShareMessage()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

func cmdBook(ctx context.Context, c *cli, args []string) error {
	if err := positional(args, 2, "<id> <quantity>"); err != nil {
		return err
	}
	detail := c.app.Detail(args[0], navigation.FromHome)
	defer detail.Close()
	if _, err := detail.Load(ctx); err != nil {
		return err
	}

	b, err := detail.BookInput(ctx, args[1])
	if err != nil {
		return err
	}
	ev, _ := detail.Event()
	fmt.Fprintf(c.out, "Booking confirmed: %s (%d seats), %d seats left\n", b.ID, b.Quantity, ev.Capacity)
	return nil
}

func cmdBookings(ctx context.Context, c *cli, args []string) error {
	fs, page := pageFlags("bookings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := c.app.Bookings.List(ctx, *page)
	if err != nil {
		return err
	}
	printBookings(c.out, st)
	return nil
}

func printBookings(w io.Writer, st pager.State[entity.Booking]) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEVENT\tUSER\tQTY\tSTATUS")
	for _, b := range st.Items {
		title := "(event removed)"
		if b.HasEvent() {
			title = b.Event.Title
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", b.ID, title, b.DisplayUserName(), b.Quantity, b.Status)
	}
	tw.Flush()
	fmt.Fprintf(w, "Page %d of %d\n", st.CurrentPage, st.TotalPages)
}

// bookingAction loads the page holding the booking, then applies fn to it.
func bookingAction(name, done string, fn func(c *cli) func(context.Context, string) error) func(context.Context, *cli, []string) error {
	return func(ctx context.Context, c *cli, args []string) error {
		fs, page := pageFlags(name)
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := positional(fs.Args(), 1, "<id>"); err != nil {
			return err
		}
		if _, err := c.app.Bookings.List(ctx, *page); err != nil {
			return err
		}
		id := fs.Arg(0)
		if err := fn(c)(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s %s\n", done, id)
		return nil
	}
}

var (
	cmdCancel        = bookingAction("cancel", "Canceled", func(c *cli) func(context.Context, string) error { return c.app.Bookings.Cancel })
	cmdToggle        = bookingAction("toggle", "Toggled", func(c *cli) func(context.Context, string) error { return c.app.Bookings.Toggle })
	cmdDeleteBooking = bookingAction("delete-booking", "Deleted", func(c *cli) func(context.Context, string) error { return c.app.Bookings.Delete })
)

// eventFlags binds the form fields; the returned func reports which were set.
func eventFlags(fs *flag.FlagSet, f *entity.EventFields) func(string) bool {
	fs.StringVar(&f.Title, "title", f.Title, "event title")
	fs.StringVar(&f.Description, "description", f.Description, "event description")
	fs.StringVar(&f.Location, "location", f.Location, "event location")
	fs.StringVar(&f.Date, "date", f.Date, "event date, YYYY-MM-DD")
	fs.StringVar(&f.Capacity, "capacity", f.Capacity, "seats available")
	return func(name string) bool {
		set := false
		fs.Visit(func(fl *flag.Flag) {
			if fl.Name == name {
				set = true
			}
		})
		return set
	}
}

func cmdCreateEvent(ctx context.Context, c *cli, args []string) error {
	var fields entity.EventFields
	fs := flag.NewFlagSet("create-event", flag.ContinueOnError)
	eventFlags(fs, &fields)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ev, err := c.app.Catalog.Create(ctx, fields)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Event created: %s\n", ev.ID)
	return nil
}

func cmdUpdateEvent(ctx context.Context, c *cli, args []string) error {
	var changes entity.EventFields
	fs := flag.NewFlagSet("update-event", flag.ContinueOnError)
	isSet := eventFlags(fs, &changes)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := positional(fs.Args(), 1, "<id>"); err != nil {
		return err
	}
	id := fs.Arg(0)

	current, err := c.app.Catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	fields := entity.EventFieldsFrom(current)
	for name, dst := range map[string]*string{
		"title":       &fields.Title,
		"description": &fields.Description,
		"location":    &fields.Location,
		"date":        &fields.Date,
		"capacity":    &fields.Capacity,
	} {
		if !isSet(name) {
			continue
		}
		fl := fs.Lookup(name)
		*dst = fl.Value.String()
	}

	if _, err := c.app.Catalog.Update(ctx, id, fields); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Event updated: %s\n", id)
	return nil
}

func cmdDeleteEvent(ctx context.Context, c *cli, args []string) error {
	fs, page := pageFlags("delete-event")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := positional(fs.Args(), 1, "<id>"); err != nil {
		return err
	}
	if _, err := c.app.Catalog.List(ctx, *page); err != nil {
		return err
	}
	if err := c.app.Catalog.Delete(ctx, fs.Arg(0)); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Event deleted: %s\n", fs.Arg(0))
	return nil
}

// watch prints both feeds after every reconcile pass until interrupted.
func cmdWatch(ctx context.Context, c *cli, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	interval := fs.Duration("interval", c.app.Config.Reconcile.Interval, "reconcile interval")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *interval <= 0 {
		*interval = time.Minute
	}

	if _, err := c.app.Catalog.List(ctx, 1); err != nil {
		return err
	}
	if _, err := c.app.Bookings.List(ctx, 1); err != nil {
		return err
	}
	show := func() {
		fmt.Fprintf(c.out, "\n== %s ==\n", time.Now().Format(time.TimeOnly))
		printEvents(c.out, c.app.Catalog.State())
		fmt.Fprintln(c.out)
		printBookings(c.out, c.app.Bookings.State())
	}
	show()

	feeds := c.app.Worker()
	w := worker.NewReconcileWorker(*interval, c.app.Log, worker.ReconcilerFunc(func(ctx context.Context) error {
		err := feeds.RunOnce(ctx)
		if ctx.Err() == nil {
			show()
		}
		return err
	}))
	w.Start(ctx)
	return nil
}
