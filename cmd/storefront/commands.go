package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gardenseed/storefront/internal/app"
	"github.com/gardenseed/storefront/internal/users"
	"github.com/gardenseed/storefront/pkg/enums"
)

type command struct {
	name  string
	usage string
	help  string
	auth  bool
	run   func(ctx context.Context, a *app.App, args []string) error
}

var commands = []command{
	{name: "whoami", usage: "whoami", help: "print the signed-in user", auth: true, run: whoami},
	{name: "products", usage: "products", help: "list the catalog", run: products},
	{name: "profile", usage: "profile <surname> <phone> <city> <postal-code> <address>", help: "save the delivery profile", auth: true, run: saveProfile},
	{name: "cart", usage: "cart", help: "print the cart", auth: true, run: showCart},
	{name: "add", usage: "add <product-id> [qty]", help: "add a product to the cart", auth: true, run: addToCart},
	{name: "checkout", usage: "checkout", help: "place an order from the cart", auth: true, run: placeOrder},
	{name: "orders", usage: "orders", help: "list orders (all orders for admins)", auth: true, run: listOrders},
	{name: "status", usage: "status <order-id> <status>", help: "change an order's status (admin)", auth: true, run: setStatus},
	{name: "chat", usage: "chat <order-id> [message]", help: "read or post an order's chat", auth: true, run: orderChat},
	{name: "theme", usage: "theme [toggle]", help: "print or toggle the theme", run: theme},
	{name: "items", usage: "items [category]", help: "list legacy items", run: legacyItems},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}

func whoami(ctx context.Context, a *app.App, _ []string) error {
	return printJSON(a.Session.CurrentUser())
}

func products(ctx context.Context, a *app.App, _ []string) error {
	list, err := a.Catalog.Products(ctx)
	if err != nil {
		return err
	}
	return printJSON(list)
}

func saveProfile(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 5 {
		return errors.New("profile needs surname, phone, city, postal code and address")
	}
	user, err := a.Session.SaveProfile(ctx, users.ProfileInput{
		Surname:    args[0],
		Phone:      args[1],
		City:       args[2],
		PostalCode: args[3],
		Address:    strings.Join(args[4:], " "),
	})
	if err != nil {
		return err
	}
	return printJSON(user)
}

func showCart(ctx context.Context, a *app.App, _ []string) error {
	return printJSON(a.Cart.Snapshot())
}

func addToCart(ctx context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		return errors.New("add needs a product id")
	}
	productID, err := parseID(args[0])
	if err != nil {
		return err
	}
	qty := 1
	if len(args) > 1 {
		if qty, err = strconv.Atoi(args[1]); err != nil || qty < 1 {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
	}
	if err := a.Cart.Add(ctx, productID, qty); err != nil {
		return err
	}
	return printJSON(a.Cart.Snapshot())
}

func placeOrder(ctx context.Context, a *app.App, _ []string) error {
	if err := a.Checkout.Begin(ctx); err != nil {
		return err
	}
	if !a.Checkout.CanConfirm() {
		return errors.New("checkout needs a delivery address on the profile")
	}
	order, err := a.Checkout.Confirm(ctx)
	if err != nil {
		return err
	}
	return printJSON(order)
}

func listOrders(ctx context.Context, a *app.App, _ []string) error {
	if a.Session.IsAdmin() {
		if err := a.OrderBoard.Load(ctx); err != nil {
			return err
		}
		return printJSON(a.OrderBoard.Orders())
	}
	if err := a.History.Load(ctx); err != nil {
		return err
	}
	return printJSON(a.History.Orders())
}

func setStatus(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 2 {
		return errors.New("status needs an order id and a status")
	}
	orderID, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.OrderBoard.Load(ctx); err != nil {
		return err
	}
	if err := a.OrderBoard.UpdateStatus(ctx, orderID, enums.OrderStatus(args[1])); err != nil {
		return err
	}
	order, _ := a.OrderBoard.Find(orderID)
	return printJSON(order)
}

func orderChat(ctx context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		return errors.New("chat needs an order id")
	}
	orderID, err := parseID(args[0])
	if err != nil {
		return err
	}
	thread, err := a.Thread(orderID)
	if err != nil {
		return err
	}
	if len(args) > 1 {
		if _, err := thread.Post(ctx, strings.Join(args[1:], " ")); err != nil {
			return err
		}
	} else if err := thread.Fetch(ctx); err != nil {
		return err
	}

	fmt.Println(thread.Title())
	for _, c := range thread.Comments() {
		who := thread.Attribute(c)
		fmt.Printf("[%s] %s (%s): %s\n", c.CreatedAt.Format("Jan 2, 2006 15:04"), who.Name, who.Role, c.Comment)
	}
	return nil
}

func theme(ctx context.Context, a *app.App, args []string) error {
	if len(args) > 0 && args[0] == "toggle" {
		if _, err := a.Theme.Toggle(ctx); err != nil {
			return err
		}
	}
	fmt.Println(a.Theme.Current())
	return nil
}

func legacyItems(ctx context.Context, a *app.App, args []string) error {
	if len(args) > 0 {
		items, err := a.Legacy.GetByField(ctx, "category", args[0])
		if err != nil {
			return err
		}
		return printJSON(items)
	}
	items, err := a.Legacy.GetAll(ctx)
	if err != nil {
		return err
	}
	return printJSON(items)
}
