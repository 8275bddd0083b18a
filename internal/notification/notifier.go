package notification

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"github.com/asaskevich/EventBus"
	"github.com/rs/zerolog/log"

	"github.com/GabrielMhv/D-Market-sub000/internal/order"
	"github.com/GabrielMhv/D-Market-sub000/internal/settings"
	"github.com/GabrielMhv/D-Market-sub000/internal/user"
)

type SettingsProvider interface {
	Get(ctx context.Context) settings.Settings
}

// Notifier turns order events into customer and admin emails. Delivery
// failures are logged and dropped.
type Notifier struct {
	sender        Sender
	settings      SettingsProvider
	storefrontURL string
}

func NewNotifier(sender Sender, shop SettingsProvider, storefrontURL string) *Notifier {
	return &Notifier{sender: sender, settings: shop, storefrontURL: strings.TrimRight(storefrontURL, "/")}
}

// Subscribe attaches the notifier to the order and settings topics of bus.
func (n *Notifier) Subscribe(bus EventBus.Bus) error {
	if err := bus.SubscribeAsync(order.TopicCreated, n.OrderCreated, false); err != nil {
		return fmt.Errorf("notification: failed to subscribe to %s: %w", order.TopicCreated, err)
	}
	if err := bus.SubscribeAsync(order.TopicStatusChanged, n.StatusChanged, false); err != nil {
		return fmt.Errorf("notification: failed to subscribe to %s: %w", order.TopicStatusChanged, err)
	}
	if err := bus.SubscribeAsync(settings.TopicUpdated, n.SettingsUpdated, false); err != nil {
		return fmt.Errorf("notification: failed to subscribe to %s: %w", settings.TopicUpdated, err)
	}
	return nil
}

func (n *Notifier) orderLink(o order.Order) string {
	return fmt.Sprintf("%s/orders/%s", n.storefrontURL, o.ID)
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notification: failed to render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func (n *Notifier) send(msg Message, orderID fmt.Stringer) {
	if err := n.sender.Send(msg); err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Str("subject", msg.Subject).Msg("notification: email not delivered")
		return
	}
	log.Debug().Stringer("order_id", orderID).Strs("to", msg.To).Msg("notification: email sent")
}

func (n *Notifier) OrderCreated(o order.Order) {
	shop := n.settings.Get(context.Background())

	body, err := render(orderCreatedTmpl, map[string]any{
		"Order":    o,
		"Shop":     shop.ShopName,
		"Currency": shop.Currency,
		"Link":     n.orderLink(o),
	})
	if err != nil {
		log.Error().Err(err).Stringer("order_id", o.ID).Msg("notification: cannot build order email")
		return
	}

	subject := fmt.Sprintf("%s: order confirmation", shop.ShopName)
	if o.UserEmail != "" {
		n.send(Message{To: []string{o.UserEmail}, Subject: subject, Body: body}, o.ID)
	}
	if shop.NotifyOnNewOrder && shop.AdminEmail != "" {
		n.send(Message{To: []string{shop.AdminEmail}, Subject: fmt.Sprintf("%s: new order %s", shop.ShopName, o.ID), Body: body}, o.ID)
	}
}

func (n *Notifier) StatusChanged(ev order.StatusChanged) {
	shop := n.settings.Get(context.Background())
	if !shop.NotifyOnStatusChange || ev.Order.UserEmail == "" {
		return
	}

	body, err := render(statusChangedTmpl, map[string]any{
		"Order":    ev.Order,
		"From":     ev.From,
		"Currency": shop.Currency,
		"Link":     n.orderLink(ev.Order),
	})
	if err != nil {
		log.Error().Err(err).Stringer("order_id", ev.Order.ID).Msg("notification: cannot build status email")
		return
	}

	n.send(Message{
		To:      []string{ev.Order.UserEmail},
		Subject: fmt.Sprintf("%s: your order is %s", shop.ShopName, ev.Order.Status),
		Body:    body,
	}, ev.Order.ID)
}

// SettingsUpdated tells the admin address the settings now in force. Nothing
// is sent while admin notifications are off.
func (n *Notifier) SettingsUpdated(shop settings.Settings) {
	if shop.AdminEmail == "" || !shop.NotifyOnNewOrder {
		log.Debug().Msg("notification: settings updated, no admin address to notify")
		return
	}

	body, err := render(settingsUpdatedTmpl, shop)
	if err != nil {
		log.Error().Err(err).Msg("notification: cannot build settings email")
		return
	}

	msg := Message{
		To:      []string{shop.AdminEmail},
		Subject: fmt.Sprintf("%s: store settings updated", shop.ShopName),
		Body:    body,
	}
	if err := n.sender.Send(msg); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("notification: email not delivered")
		return
	}
	log.Debug().Strs("to", msg.To).Msg("notification: settings email sent")
}

// SendPasswordReset mails the reset link synchronously so the caller sees
// delivery failures.
func (n *Notifier) SendPasswordReset(ctx context.Context, u user.User, token string) error {
	shop := n.settings.Get(ctx)

	body, err := render(passwordResetTmpl, map[string]any{
		"Name": u.Name,
		"Shop": shop.ShopName,
		"Link": n.storefrontURL + "/reset-password?token=" + url.QueryEscape(token),
	})
	if err != nil {
		return err
	}

	return n.sender.Send(Message{
		To:      []string{u.Email},
		Subject: fmt.Sprintf("%s: reset your password", shop.ShopName),
		Body:    body,
	})
}
