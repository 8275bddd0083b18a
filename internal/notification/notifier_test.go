package notification_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielMhv/D-Market-sub000/internal/notification"
	"github.com/GabrielMhv/D-Market-sub000/internal/order"
	"github.com/GabrielMhv/D-Market-sub000/internal/settings"
	"github.com/GabrielMhv/D-Market-sub000/internal/user"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []notification.Message
	err  error
}

func (c *captureSender) Send(msg notification.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return c.err
}

func (c *captureSender) sent() []notification.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notification.Message(nil), c.msgs...)
}

type fixedSettings struct{ s settings.Settings }

func (f fixedSettings) Get(context.Context) settings.Settings { return f.s }

func sampleOrder() order.Order {
	return order.Order{
		ID:          uuid.Must(uuid.NewV4()),
		UserEmail:   "ama@example.com",
		Subtotal:    17000,
		DeliveryFee: 1000,
		Total:       18000,
		Status:      order.StatusPending,
		Items: []order.OrderItem{
			{ProductName: "Linen shirt", Price: 8500, Quantity: 2, Size: "M", Color: "white"},
		},
		DeliveryAddress: order.DeliveryAddress{Name: "Ama", Phone: "90000000", Address: "12 rue des Palmiers", City: "Lomé"},
	}
}

func TestNotifier_OrderCreated_ThroughBus(t *testing.T) {
	shop := settings.Defaults()
	shop.AdminEmail = "ops@example.com"
	sender := &captureSender{}
	n := notification.NewNotifier(sender, fixedSettings{shop}, "https://shop.example/")

	bus := EventBus.New()
	require.NoError(t, n.Subscribe(bus))

	o := sampleOrder()
	bus.Publish(order.TopicCreated, o)
	bus.WaitAsync()

	msgs := sender.sent()
	require.Len(t, msgs, 2)

	byRecipient := map[string]notification.Message{}
	for _, m := range msgs {
		byRecipient[m.To[0]] = m
	}
	customer := byRecipient["ama@example.com"]
	assert.Contains(t, customer.Body, "Linen shirt (M, white) x2: 17000 XOF")
	assert.Contains(t, customer.Body, "Total: 18000 XOF")
	assert.Contains(t, customer.Body, "12 rue des Palmiers")
	assert.Contains(t, customer.Body, "https://shop.example/orders/"+o.ID.String())
	assert.Contains(t, byRecipient["ops@example.com"].Subject, o.ID.String())
}

func TestNotifier_OrderCreated_AdminCopyToggle(t *testing.T) {
	shop := settings.Defaults()
	shop.AdminEmail = "ops@example.com"
	shop.NotifyOnNewOrder = false
	sender := &captureSender{}

	notification.NewNotifier(sender, fixedSettings{shop}, "https://shop.example").OrderCreated(sampleOrder())

	msgs := sender.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"ama@example.com"}, msgs[0].To)
}

func TestNotifier_StatusChanged(t *testing.T) {
	o := sampleOrder()
	o.Status = order.StatusShipped
	ev := order.StatusChanged{Order: o, From: order.StatusProcessing}

	t.Run("enabled", func(t *testing.T) {
		sender := &captureSender{}
		notification.NewNotifier(sender, fixedSettings{settings.Defaults()}, "https://shop.example").StatusChanged(ev)
		msgs := sender.sent()
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0].Subject, "shipped")
		assert.Contains(t, msgs[0].Body, "is now shipped (was processing)")
	})

	t.Run("disabled", func(t *testing.T) {
		shop := settings.Defaults()
		shop.NotifyOnStatusChange = false
		sender := &captureSender{}
		notification.NewNotifier(sender, fixedSettings{shop}, "https://shop.example").StatusChanged(ev)
		assert.Empty(t, sender.sent())
	})

	t.Run("send_failure_is_swallowed", func(t *testing.T) {
		sender := &captureSender{err: errors.New("smtp down")}
		assert.NotPanics(t, func() {
			notification.NewNotifier(sender, fixedSettings{settings.Defaults()}, "https://shop.example").StatusChanged(ev)
		})
		assert.Len(t, sender.sent(), 1, "no retry")
	})
}

func TestNotifier_SettingsUpdated_ThroughBus(t *testing.T) {
	t.Run("admin_address_set", func(t *testing.T) {
		sender := &captureSender{}
		n := notification.NewNotifier(sender, fixedSettings{settings.Defaults()}, "https://shop.example")
		bus := EventBus.New()
		require.NoError(t, n.Subscribe(bus))

		shop := settings.Defaults()
		shop.AdminEmail = "ops@example.com"
		shop.DeliveryFee = 1500
		bus.Publish(settings.TopicUpdated, shop)
		bus.WaitAsync()

		msgs := sender.sent()
		require.Len(t, msgs, 1)
		assert.Equal(t, []string{"ops@example.com"}, msgs[0].To)
		assert.Equal(t, "D-Market: store settings updated", msgs[0].Subject)
		assert.Contains(t, msgs[0].Body, "Delivery fee: 1500 XOF")
		assert.Contains(t, msgs[0].Body, "Free delivery from: disabled")
	})

	t.Run("no_admin_address", func(t *testing.T) {
		sender := &captureSender{}
		n := notification.NewNotifier(sender, fixedSettings{settings.Defaults()}, "https://shop.example")
		bus := EventBus.New()
		require.NoError(t, n.Subscribe(bus))

		bus.Publish(settings.TopicUpdated, settings.Defaults())
		bus.WaitAsync()

		assert.Empty(t, sender.sent())
	})
}

func TestNotifier_SendPasswordReset(t *testing.T) {
	sender := &captureSender{}
	n := notification.NewNotifier(sender, fixedSettings{settings.Defaults()}, "https://shop.example")

	err := n.SendPasswordReset(context.Background(), user.User{Name: "Ama", Email: "ama@example.com"}, "tok+en")
	require.NoError(t, err)

	msgs := sender.sent()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Body, "https://shop.example/reset-password?token=tok%2Ben")

	sender.err = errors.New("smtp down")
	assert.Error(t, n.SendPasswordReset(context.Background(), user.User{Email: "ama@example.com"}, "t"))
}
