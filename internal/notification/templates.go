package notification

import (
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"short": func(id interface{ String() string }) string {
		s := id.String()
		if len(s) > 8 {
			return strings.ToUpper(s[:8])
		}
		return strings.ToUpper(s)
	},
}

var orderCreatedTmpl = template.Must(template.New("order_created").Funcs(funcs).Parse(`Hello {{.Order.DeliveryAddress.Name}},

Thank you for your order #{{short .Order.ID}} at {{.Shop}}.

{{range .Order.Items}}- {{.ProductName}}{{if .Size}} ({{.Size}}{{if .Color}}, {{.Color}}{{end}}){{end}} x{{.Quantity}}: {{.LineTotal}} {{$.Currency}}
{{end}}
Subtotal: {{.Order.Subtotal}} {{.Currency}}
Delivery: {{.Order.DeliveryFee}} {{.Currency}}
{{if .Order.Discount}}Discount: -{{.Order.Discount}} {{.Currency}}
{{end}}Total: {{.Order.Total}} {{.Currency}}

Delivery address:
{{.Order.DeliveryAddress.Name}}
{{.Order.DeliveryAddress.Address}}
{{.Order.DeliveryAddress.City}}{{if .Order.DeliveryAddress.Country}}, {{.Order.DeliveryAddress.Country}}{{end}}
{{.Order.DeliveryAddress.Phone}}

Follow your order: {{.Link}}
`))

var statusChangedTmpl = template.Must(template.New("status_changed").Funcs(funcs).Parse(`Hello {{.Order.DeliveryAddress.Name}},

Your order #{{short .Order.ID}} is now {{.Order.Status}} (was {{.From}}).

Total: {{.Order.Total}} {{.Currency}}

Follow your order: {{.Link}}
`))

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`Hello {{.Name}},

Someone asked to reset the password of your {{.Shop}} account.
Open the link below to choose a new one. It expires shortly and works once.

{{.Link}}

If you did not ask for this, ignore this email.
`))

var settingsUpdatedTmpl = template.Must(template.New("settings_updated").Parse(`The {{.ShopName}} settings were updated.

Currency: {{.Currency}}
Delivery fee: {{.DeliveryFee}} {{.Currency}}
Free delivery from: {{if .FreeDeliveryThreshold}}{{.FreeDeliveryThreshold}} {{.Currency}}{{else}}disabled{{end}}
Low stock threshold: {{.LowStockThreshold}}
Status change emails: {{if .NotifyOnStatusChange}}on{{else}}off{{end}}

New order copies are sent to this address.
`))
