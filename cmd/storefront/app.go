package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"text/tabwriter"

	"github.com/example/ec-storefront/internal/client"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/catalog"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/session"
	"github.com/example/ec-storefront/internal/infrastructure/storage"
)

// cookieKey holds the API session cookies between runs.
const cookieKey = "apiSession"

var (
	errUsage         = errors.New("usage")
	errNotSignedIn   = errors.New("not signed in, run: storefront login USERNAME PASSWORD")
	errFeedDisabled  = errors.New("no change feed configured, set KAFKA_BROKERS")
	errUnknownAction = errors.New("unknown command")
)

// App is the composition root of the command-line storefront: explicit store
// instances over one persistence medium, and the API client.
type App struct {
	kv      storage.KeyValue
	api     *client.Client
	cart    *cart.Store
	orders  *order.Store
	session *session.Store
	feed    storage.Feed
	out     io.Writer
}

func NewApp(kv storage.KeyValue, api *client.Client, out io.Writer) *App {
	a := &App{
		kv:      kv,
		api:     api,
		cart:    cart.NewStore(kv),
		orders:  order.NewStore(kv),
		session: session.NewStore(kv),
		out:     out,
	}
	a.restoreCookies()
	return a
}

// Follow routes changes made by other execution contexts to the stores.
func (a *App) Follow(feed storage.Feed) (unsubscribe func()) {
	a.feed = feed
	return feed.Subscribe(func(change storage.Change) {
		a.cart.HandleExternalChange(change)
		a.orders.HandleExternalChange(change)
		a.session.HandleExternalChange(change)
	})
}

// Run executes one command line.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "categories":
		return a.categories(ctx)
	case "products":
		return a.products(ctx, rest)
	case "product":
		return a.product(ctx, rest)
	case "cart":
		return a.cartCmd(ctx, rest)
	case "checkout":
		return a.checkout()
	case "orders":
		return a.listOrders(ctx, rest)
	case "order":
		return a.showOrder(ctx, rest)
	case "order-status":
		return a.orderStatus(rest)
	case "place-order":
		return a.placeOrder(ctx, rest)
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "profile":
		return a.profile(ctx)
	case "status":
		return a.status()
	case "watch":
		return a.watch(ctx)
	}
	return fmt.Errorf("%w: %s", errUnknownAction, cmd)
}

// Catalog

func (a *App) categories(ctx context.Context) error {
	categories, err := a.api.ListCategories(ctx)
	if err != nil {
		return err
	}
	tw := a.table("ID", "NAME", "DESCRIPTION")
	for _, c := range categories {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
	}
	return tw.Flush()
}

func (a *App) products(ctx context.Context, args []string) error {
	fs := newFlagSet("products")
	categoryID := fs.Int64("category", 0, "only list products of this category id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	products, err := a.api.ListProducts(ctx)
	if err != nil {
		return err
	}
	if *categoryID != 0 {
		products = catalog.FilterByCategory(products, *categoryID)
	}

	tw := a.table("ID", "NAME", "PRICE", "CATEGORY")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), p.Category.Name)
	}
	return tw.Flush()
}

func (a *App) product(ctx context.Context, args []string) error {
	id, err := argID(args, 0)
	if err != nil {
		return err
	}
	p, err := a.api.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (#%d)\n%s\nPrice: %s\nCategory: %s\n", p.Name, p.ID, p.Description, p.Price.StringFixed(2), p.Category.Name)
	if p.Image != nil {
		fmt.Fprintf(a.out, "Image: %s\n", *p.Image)
	}
	return nil
}

// Local cart

func (a *App) cartCmd(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "show" {
		return a.showCart()
	}

	switch args[0] {
	case "add":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		quantity := 1
		if len(args) > 2 {
			if quantity, err = strconv.Atoi(args[2]); err != nil || quantity < 1 {
				return fmt.Errorf("%w: quantity must be a positive number", errUsage)
			}
		}
		p, err := a.api.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		if err := a.cart.Add(p, quantity); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added %d x %s\n", quantity, p.Name)
		return nil

	case "remove":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		return a.cart.Remove(id)

	case "clear":
		return a.cart.Clear()

	case "sync":
		return a.syncRemoteCart(ctx)
	}
	return fmt.Errorf("%w: cart %s", errUnknownAction, args[0])
}

func (a *App) showCart() error {
	lines := a.cart.Items()
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty.")
		return nil
	}
	tw := a.table("ID", "PRODUCT", "QTY", "SUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", l.Product.ID, l.Product.Name, l.Quantity, l.Subtotal().StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d item(s), total %s\n", a.cart.Count(), a.cart.Total().StringFixed(2))
	return nil
}

// syncRemoteCart replaces the signed-in user's server cart with the local
// lines. The server adds quantities to existing lines, so it is emptied
// first to keep repeated syncs from doubling them.
func (a *App) syncRemoteCart(ctx context.Context) error {
	if !a.session.IsAuthenticated() {
		return errNotSignedIn
	}
	if _, err := a.api.ClearCart(ctx); err != nil {
		return a.remoteErr(err)
	}
	for _, l := range a.cart.Items() {
		if _, err := a.api.AddToCart(ctx, l.Product.ID, l.Quantity); err != nil {
			return fmt.Errorf("failed to add %s to remote cart: %w", l.Product.Name, err)
		}
	}
	remote, err := a.api.GetCart(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Remote cart #%d now has %d line(s)\n", remote.ID, len(remote.Items))
	return nil
}

// checkout records one local order per cart line, then empties the cart.
func (a *App) checkout() error {
	lines := a.cart.Items()
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty.")
		return nil
	}
	for _, l := range lines {
		r, err := a.orders.AddOrder(l.Product, order.StatusPending)
		if err != nil {
			return fmt.Errorf("failed to record order for %s: %w", l.Product.Name, err)
		}
		fmt.Fprintf(a.out, "Order %d: %s (%s)\n", r.ID, r.Product.Name, r.Status)
	}
	return a.cart.Clear()
}

// Orders

func (a *App) listOrders(ctx context.Context, args []string) error {
	fs := newFlagSet("orders")
	remote := fs.Bool("remote", false, "list the orders stored by the API")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*remote {
		tw := a.table("ID", "PRODUCT", "STATUS", "CREATED")
		for _, r := range a.orders.Orders() {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Product.Name, r.Status, r.CreatedAt)
		}
		return tw.Flush()
	}

	orders, err := a.api.ListOrders(ctx)
	if err != nil {
		return a.remoteErr(err)
	}
	tw := a.table("ID", "STATUS", "ITEMS", "TOTAL", "CREATED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", o.ID, o.Status, len(o.Items), o.Total().StringFixed(2), o.CreatedAt)
	}
	return tw.Flush()
}

func (a *App) showOrder(ctx context.Context, args []string) error {
	fs := newFlagSet("order")
	remote := fs.Bool("remote", false, "fetch the order from the API")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := argID(fs.Args(), 0)
	if err != nil {
		return err
	}

	if !*remote {
		r, ok := a.orders.Get(id)
		if !ok {
			return fmt.Errorf("order %d not found", id)
		}
		fmt.Fprintf(a.out, "Order %d\nProduct: %s\nStatus: %s\nCreated: %s\n", r.ID, r.Product.Name, r.Status, r.CreatedAt)
		return nil
	}

	o, err := a.api.GetOrder(ctx, id)
	if err != nil {
		return a.remoteErr(err)
	}
	fmt.Fprintf(a.out, "Order %d (%s)\nShip to: %s\n", o.ID, o.Status, o.ShippingAddress)
	tw := a.table("PRODUCT", "QTY", "PRICE")
	for _, it := range o.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", it.Product.Name, it.Quantity, it.Price.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Total: %s\n", o.Total().StringFixed(2))
	return nil
}

func (a *App) orderStatus(args []string) error {
	id, err := argID(args, 0)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: order-status ID STATUS", errUsage)
	}
	status, err := order.ParseStatus(args[1])
	if err != nil {
		return err
	}
	found, err := a.orders.UpdateStatus(id, status)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(a.out, "No order %d\n", id)
		return nil
	}
	fmt.Fprintf(a.out, "Order %d is now %s\n", id, status)
	return nil
}

// placeOrder turns the signed-in user's server cart into a server order.
func (a *App) placeOrder(ctx context.Context, args []string) error {
	fs := newFlagSet("place-order")
	var req client.CreateOrderRequest
	fs.StringVar(&req.ShippingAddress, "address", "", "shipping address")
	fs.StringVar(&req.PhoneNumber, "phone", "", "phone number")
	fs.StringVar(&req.PaymentMethod, "payment", "card", "payment method")
	if err := fs.Parse(args); err != nil {
		return err
	}

	o, err := a.api.CreateOrder(ctx, req)
	if err != nil {
		return a.remoteErr(err)
	}
	fmt.Fprintf(a.out, "Placed order %d, total %s\n", o.ID, o.Total().StringFixed(2))
	return nil
}

// Account

func (a *App) register(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: register USERNAME EMAIL PASSWORD", errUsage)
	}
	msg, err := a.api.Register(ctx, client.RegisterRequest{
		Username:  args[0],
		Email:     args[1],
		Password1: args[2],
		Password2: args[2],
	})
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && len(apiErr.Body) > 0 {
			return fmt.Errorf("registration rejected: %s", apiErr.Body)
		}
		return err
	}
	fmt.Fprintln(a.out, msg.Message)
	return nil
}

// login authenticates against the API first; the local flag is only set once
// the server has accepted the credentials.
func (a *App) login(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: login USERNAME PASSWORD", errUsage)
	}
	msg, err := a.api.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if err := a.session.Login(); err != nil {
		return err
	}
	a.saveCookies()
	fmt.Fprintln(a.out, msg.Message)
	return nil
}

func (a *App) logout(ctx context.Context) error {
	if _, err := a.api.Logout(ctx); err != nil && !client.IsUnauthorized(err) {
		log.Printf("[Storefront] Remote logout failed: %v", err)
	}
	if err := a.session.Logout(); err != nil {
		return err
	}
	if err := a.kv.Remove(cookieKey); err != nil {
		log.Printf("[Storefront] Failed to drop saved session: %v", err)
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) profile(ctx context.Context) error {
	p, err := a.api.GetProfile(ctx)
	if err != nil {
		return a.remoteErr(err)
	}
	fmt.Fprintf(a.out, "%s <%s> (#%d)\n", p.Username, p.Email, p.ID)
	return nil
}

func (a *App) status() error {
	state := "signed out"
	if a.session.IsAuthenticated() {
		state = "signed in"
	}
	fmt.Fprintf(a.out, "Session: %s\nCart: %d item(s), total %s\nOrders: %d\n",
		state, a.cart.Count(), a.cart.Total().StringFixed(2), len(a.orders.Orders()))
	return nil
}

// watch reports changes made by other execution contexts until ctx ends.
func (a *App) watch(ctx context.Context) error {
	if a.feed == nil {
		return errFeedDisabled
	}
	stop := a.cart.OnExternalChange(func() {
		fmt.Fprintf(a.out, "cart changed: %d item(s)\n", a.cart.Count())
	})
	defer stop()
	stopOrders := a.orders.OnExternalChange(func() {
		fmt.Fprintf(a.out, "orders changed: %d order(s)\n", len(a.orders.Orders()))
	})
	defer stopOrders()
	stopSession := a.session.OnExternalChange(func() {
		fmt.Fprintf(a.out, "session changed: authenticated=%t\n", a.session.IsAuthenticated())
	})
	defer stopSession()

	<-ctx.Done()
	return nil
}

// remoteErr turns a 401 into a hint to sign in and clears a stale local flag.
func (a *App) remoteErr(err error) error {
	if !client.IsUnauthorized(err) {
		return err
	}
	if a.session.IsAuthenticated() {
		if lerr := a.session.Logout(); lerr != nil {
			log.Printf("[Storefront] Failed to clear stale session: %v", lerr)
		}
	}
	return fmt.Errorf("%w (%v)", errNotSignedIn, err)
}

// Session cookies

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (a *App) restoreCookies() {
	raw, ok, err := a.kv.Get(cookieKey)
	if err != nil || !ok {
		return
	}
	var saved []savedCookie
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		log.Printf("[Storefront] Ignoring unreadable saved session: %v", err)
		return
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	a.api.SetCookies(cookies)
}

func (a *App) saveCookies() {
	var saved []savedCookie
	for _, c := range a.api.Cookies() {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return
	}
	if err := a.kv.Set(cookieKey, string(data)); err != nil {
		log.Printf("[Storefront] Failed to save session: %v", err)
	}
}

// Helpers

func (a *App) table(headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw)
	return tw
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func argID(args []string, i int) (int64, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("%w: missing id", errUsage)
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errUsage, args[i])
	}
	return id, nil
}
