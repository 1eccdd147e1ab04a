package services

import (
	"context"
	"fmt"
	"strings"
)

// textInvoiceRenderer produces a plain-text invoice suitable for download or
// piping into a document pipeline later.
type textInvoiceRenderer struct{}

// NewTextInvoiceRenderer returns the default plain-text invoice renderer.
func NewTextInvoiceRenderer() DocumentRenderer {
	return &textInvoiceRenderer{}
}

func (r *textInvoiceRenderer) Render(_ context.Context, data InvoiceData) (InvoiceDocument, error) {
	if data.InvoiceNumber == "" {
		return InvoiceDocument{}, fmt.Errorf("invoice renderer: invoice number is empty")
	}

	var b strings.Builder
	b.WriteString("TAX INVOICE\n")
	b.WriteString(strings.Repeat("=", 48) + "\n\n")

	writeSeller(&b, data.Seller)

	fmt.Fprintf(&b, "Invoice No : %s\n", data.InvoiceNumber)
	fmt.Fprintf(&b, "Date       : %s\n", data.IssuedAt.Format("02 Jan 2006"))
	fmt.Fprintf(&b, "Status     : %s\n\n", data.Order.Status)

	b.WriteString("Bill To:\n")
	writeBuyer(&b, data)

	b.WriteString("Items:\n")
	for i, item := range data.Order.Items {
		fmt.Fprintf(&b, "%2d. %s%s\n", i+1, item.Name, variantLabel(item.Size, item.Color))
		fmt.Fprintf(&b, "    %d x Rs.%d = Rs.%d\n", item.Quantity, item.UnitPrice, item.LineTotal())
	}
	b.WriteString("\n")

	b.WriteString(strings.Repeat("-", 48) + "\n")
	fmt.Fprintf(&b, "Total: Rs.%d\n", data.Order.TotalAmount)

	if address := formatAddress(data.Order.ShippingAddress); address != "" {
		fmt.Fprintf(&b, "\nShip To: %s\n", address)
	}

	return InvoiceDocument{
		InvoiceNumber: data.InvoiceNumber,
		Filename:      fmt.Sprintf("invoice-%s.txt", data.InvoiceNumber),
		ContentType:   "text/plain; charset=utf-8",
		Content:       []byte(b.String()),
	}, nil
}

func writeSeller(b *strings.Builder, seller SellerDetails) {
	if seller.Name == "" {
		return
	}
	fmt.Fprintf(b, "%s\n", seller.Name)
	if seller.Address != "" {
		fmt.Fprintf(b, "%s\n", seller.Address)
	}
	if seller.GSTIN != "" {
		fmt.Fprintf(b, "GSTIN: %s\n", seller.GSTIN)
	}
	if seller.Email != "" || seller.Phone != "" {
		fmt.Fprintf(b, "%s\n", strings.TrimSpace(seller.Email+"  "+seller.Phone))
	}
	b.WriteString("\n")
}

func writeBuyer(b *strings.Builder, data InvoiceData) {
	name := data.Buyer.Company
	if name == "" {
		name = data.Buyer.Name
	}
	if name == "" {
		name = data.Buyer.ID
	}
	fmt.Fprintf(b, "%s\n", name)
	if data.Buyer.Company != "" && data.Buyer.Name != "" {
		fmt.Fprintf(b, "Attn: %s\n", data.Buyer.Name)
	}
	if data.Buyer.GSTIN != "" {
		fmt.Fprintf(b, "GSTIN: %s\n", data.Buyer.GSTIN)
	}
	b.WriteString("\n")
}

func variantLabel(size, color string) string {
	parts := make([]string, 0, 2)
	if size != "" {
		parts = append(parts, size)
	}
	if color != "" {
		parts = append(parts, color)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, " / ") + ")"
}

func formatAddress(addr ShippingAddress) string {
	parts := make([]string, 0, 5)
	for _, part := range []string{addr.Street, addr.City, addr.State, addr.Pincode, addr.Country} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}
