package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"stay-web/internal/models"
	"stay-web/internal/services"
)

// usageError is shown to the user verbatim
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func (e *usageError) DisplayMessage() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type command struct {
	summary string
	run     func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"serve":         {"run the web server", (*app).serve},
	"login":         {"log in and remember the token", (*app).login},
	"register":      {"create an account", (*app).register},
	"logout":        {"log out and forget the token", (*app).logout},
	"whoami":        {"show the logged-in user", (*app).whoami},
	"listings":      {"search listings", (*app).listings},
	"show":          {"show one listing", (*app).show},
	"book":          {"book a listing", (*app).book},
	"bookings":      {"list your bookings", (*app).bookings},
	"host-listings": {"list the listings you host", (*app).hostListings},
	"host-create":   {"publish a new listing", (*app).hostCreate},
	"host-delete":   {"delete one of your listings", (*app).hostDelete},
}

// run dispatches args[0] to its command; no arguments means serve
func (a *app) run(ctx context.Context, args []string) error {
	name := "serve"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	c, ok := commands[name]
	if !ok {
		a.usage()
		return usagef("unknown command %q", name)
	}
	return c.run(a, ctx, args)
}

func (a *app) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.out, "usage: stay-web <command> [flags]")
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%s\n", name, commands[name].summary)
	}
	w.Flush()
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return usagef("usage shown above")
		}
		return usagef("%v", err)
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	req := models.LoginRequest{Email: *email, Password: *password}
	if err := services.Validate(req); err != nil {
		return err
	}

	ctx, err := a.authed(ctx)
	if err != nil {
		return err
	}
	user, err := a.client.Login(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	name := fs.String("name", "", "display name")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	req := models.RegisterRequest{Email: *email, Password: *password, Name: *name}
	if err := services.Validate(req); err != nil {
		return err
	}

	ctx, err := a.authed(ctx)
	if err != nil {
		return err
	}
	user, err := a.client.Register(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Welcome, %s! You are logged in.\n", user.Name)
	return nil
}

func (a *app) logout(ctx context.Context, args []string) error {
	ctx, err := a.authed(ctx)
	if err != nil {
		return err
	}
	if err := a.client.Logout(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) whoami(ctx context.Context, args []string) error {
	ctx, err := a.authed(ctx)
	if err != nil {
		return err
	}
	user, err := a.client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}

	fmt.Fprintf(a.out, "%s <%s> (id %d)\n", user.Name, user.Email, user.ID)
	return nil
}

func (a *app) listings(ctx context.Context, args []string) error {
	fs := a.flags("listings")
	location := fs.String("location", "", "where to stay")
	checkIn := fs.String("check-in", "", "check-in date (YYYY-MM-DD)")
	checkOut := fs.String("check-out", "", "check-out date (YYYY-MM-DD)")
	guests := fs.Int("guests", 0, "number of guests")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	params := models.SearchParams{Location: *location, Guests: *guests}
	var err error
	if params.CheckIn, err = optionalDate(*checkIn); err != nil {
		return err
	}
	if params.CheckOut, err = optionalDate(*checkOut); err != nil {
		return err
	}

	ctx, err = a.authed(ctx)
	if err != nil {
		return err
	}
	listings, err := a.client.Listings(ctx, params)
	if err != nil {
		return err
	}

	a.printListings(listings)
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := a.flags("show")
	id := fs.Int64("id", 0, "listing id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return usagef("-id is required")
	}

	ctx, err := a.authed(ctx)
	if err != nil {
		return err
	}
	l, err := a.client.Listing(ctx, *id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s\n%s\n\n%s\n\n", l.Title, l.Location, l.Description)
	fmt.Fprintf(a.out, "$%.2f / night · up to %d guests · %d bedrooms · %g bathrooms\n",
		l.PricePerNight, l.MaxGuests, l.Bedrooms, l.Bathrooms)
	if l.HostName != "" {
		fmt.Fprintf(a.out, "Hosted by %s\n", l.HostName)
	}
	return nil
}

func (a *app) book(ctx context.Context, args []string) error {
	fs := a.flags("book")
	id := fs.Int64("id", 0, "listing id")
	checkIn := fs.String("check-in", "", "check-in date (YYYY-MM-DD)")
	checkOut := fs.String("check-out", "", "check-out date (YYYY-MM-DD)")
	guests := fs.Int("guests", 1, "number of guests")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return usagef("-id is required")
	}

	form := services.BookingForm{Guests: *guests}
	in, err := optionalDate(*checkIn)
	if err != nil {
		return err
	}
	out, err := optionalDate(*checkOut)
	if err != nil {
		return err
	}
	if in != nil {
		form.CheckIn = *in
	}
	if out != nil {
		form.CheckOut = *out
	}

	ctx, err = a.authed(ctx)
	if err != nil {
		return err
	}
	listing, err := a.client.Listing(ctx, *id)
	if err != nil {
		return err
	}

	flow := services.NewBookingFlow(a.client, *listing, a.cfg.Booking.RedirectDelay)
	if err := flow.SetForm(form); err != nil {
		return err
	}
	if q := flow.Quote(); q.Nights > 0 {
		fmt.Fprintf(a.out, "%d nights × $%.2f = $%.2f\n", q.Nights, q.PricePerNight, q.Total)
	}

	res := flow.Submit(ctx)
	if res.Redirect == services.LoginPath {
		return usagef("Please log in first: stay-web login -email <email> -password <password>")
	}
	if res.State != services.StateSucceeded {
		return usagef("%s", res.Message)
	}

	fmt.Fprintf(a.out, "Booking confirmed! Reservation #%d (%s)\n", res.Booking.ID, res.Booking.Status)

	select {
	case <-ctx.Done():
		return nil
	case <-time.After(res.RedirectAfter):
	}
	return a.bookings(ctx, nil)
}

func (a *app) bookings(ctx context.Context, args []string) error {
	ctx, err := a.authed(ctx)
	if err != nil {
		return err
	}
	bookings, err := a.client.UserBookings(ctx)
	if err != nil {
		return err
	}

	if len(bookings) == 0 {
		fmt.Fprintln(a.out, "You have no bookings yet")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLISTING\tCHECK-IN\tCHECK-OUT\tTOTAL\tSTATUS")
	for _, b := range bookings {
		title := fmt.Sprintf("listing %d", b.ListingID)
		if b.Listing != nil {
			title = b.Listing.Title
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t$%.2f\t%s\n",
			b.ID, title, b.CheckInDate, b.CheckOutDate, b.TotalPrice, b.Status)
	}
	return w.Flush()
}

func (a *app) hostListings(ctx context.Context, args []string) error {
	ctx, err := a.authed(ctx)
	if err != nil {
		return err
	}

	d := services.NewHostDashboard(a.client, nil)
	if err := d.Load(ctx); err != nil {
		return err
	}

	listings := d.Listings()
	if len(listings) == 0 {
		fmt.Fprintln(a.out, "You are not hosting any listings yet")
		return nil
	}
	a.printListings(listings)
	return nil
}

func (a *app) hostCreate(ctx context.Context, args []string) error {
	fs := a.flags("host-create")
	var req models.CreateListingRequest
	fs.StringVar(&req.Title, "title", "", "listing title")
	fs.StringVar(&req.Description, "description", "", "listing description")
	fs.StringVar(&req.Location, "location", "", "listing location")
	fs.Float64Var(&req.PricePerNight, "price", 0, "price per night")
	fs.StringVar(&req.ImageURL, "image-url", "", "public image URL")
	fs.IntVar(&req.MaxGuests, "max-guests", 1, "maximum number of guests")
	fs.IntVar(&req.Bedrooms, "bedrooms", 1, "number of bedrooms")
	fs.Float64Var(&req.Bathrooms, "bathrooms", 1, "number of bathrooms")
	imagePath := fs.String("image", "", "local image file to upload instead of -image-url")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	ctx, err := a.authed(ctx)
	if err != nil {
		return err
	}

	var image *services.ImageFile
	if *imagePath != "" {
		f, err := os.Open(*imagePath)
		if err != nil {
			return usagef("cannot open image: %v", err)
		}
		defer f.Close()
		image = &services.ImageFile{
			Name:        filepath.Base(*imagePath),
			ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(*imagePath))),
			Body:        f,
		}
	}

	var images services.ImageStore
	if image != nil {
		images = a.imageStore(ctx)
	}

	listing, err := services.NewHostDashboard(a.client, images).Create(ctx, req, image)
	if errors.Is(err, services.ErrUploadsDisabled) {
		return usagef("Image uploads need aws.s3_bucket to be configured")
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Listing #%d %q published\n", listing.ID, listing.Title)
	return nil
}

func (a *app) hostDelete(ctx context.Context, args []string) error {
	fs := a.flags("host-delete")
	id := fs.Int64("id", 0, "listing id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return usagef("-id is required")
	}

	ctx, err := a.authed(ctx)
	if err != nil {
		return err
	}
	if err := services.NewHostDashboard(a.client, nil).Delete(ctx, *id); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Listing #%d deleted\n", *id)
	return nil
}

func (a *app) printListings(listings []models.Listing) {
	if len(listings) == 0 {
		fmt.Fprintln(a.out, "No listings found")
		return
	}
	printListingTable(a.out, listings)
}

func printListingTable(out io.Writer, listings []models.Listing) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLOCATION\tPRICE\tGUESTS")
	for _, l := range listings {
		fmt.Fprintf(w, "%d\t%s\t%s\t$%.2f\t%d\n", l.ID, l.Title, l.Location, l.PricePerNight, l.MaxGuests)
	}
	w.Flush()
}

func optionalDate(raw string) (*models.Date, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, usagef("dates must look like 2024-06-01, got %q", raw)
	}
	return &d, nil
}
