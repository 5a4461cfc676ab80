package order

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Order is append-only: once placed it is never updated or deleted.
type Order struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey;size:64"`
	Customer  Customer  `json:"customer" bson:"customer" gorm:"type:json;not null"`
	Items     Items     `json:"items" bson:"items" gorm:"type:json;not null"`
	Total     Money     `json:"total" bson:"total" gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" gorm:"index"`
}

func (Order) TableName() string { return "orders" }

// Item is a product line with name and unit price snapshotted at placement.
type Item struct {
	ProductID int64  `json:"id" bson:"id"`
	Qty       int    `json:"qty" bson:"qty"`
	Name      string `json:"name" bson:"name"`
	Price     Money  `json:"price" bson:"price"`
}

// MarshalJSON writes the unit price as a JSON number so line items carry
// the same type as catalog prices; the order total stays a string.
func (it Item) MarshalJSON() ([]byte, error) {
	type plain Item
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain: plain(it), Price: json.Number(it.Price.String())})
}

type Items []Item

func (it Items) Value() (driver.Value, error) {
	if it == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(it)
}

func (it *Items) Scan(value any) error {
	return scanJSON(value, it)
}

type Customer struct {
	Name    string `json:"name" bson:"name"`
	Phone   string `json:"phone" bson:"phone"`
	Pincode string `json:"pincode" bson:"pincode"`
	Address string `json:"address" bson:"address"`
	Payment string `json:"payment" bson:"payment"`
}

func (c Customer) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *Customer) Scan(value any) error {
	return scanJSON(value, c)
}

func scanJSON(value, dst any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
}

const DefaultPayment = "cod"

var fieldLimits = map[string]int{
	"name":    100,
	"phone":   20,
	"pincode": 12,
	"address": 500,
	"payment": 20,
}

// Sanitize trims every field, strips control characters and caps lengths.
// Name, phone and address are required; payment defaults to cash on delivery.
func (c Customer) Sanitize() (Customer, map[string]string) {
	out := Customer{
		Name:    clean(c.Name, fieldLimits["name"]),
		Phone:   clean(c.Phone, fieldLimits["phone"]),
		Pincode: clean(c.Pincode, fieldLimits["pincode"]),
		Address: clean(c.Address, fieldLimits["address"]),
		Payment: strings.ToLower(clean(c.Payment, fieldLimits["payment"])),
	}
	if out.Payment == "" {
		out.Payment = DefaultPayment
	}

	missing := map[string]string{}
	if out.Name == "" {
		missing["name"] = "required"
	}
	if out.Phone == "" {
		missing["phone"] = "required"
	}
	if out.Address == "" {
		missing["address"] = "required"
	}
	if len(missing) > 0 {
		return Customer{}, missing
	}
	return out, nil
}

func clean(s string, max int) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)

	if r := []rune(s); len(r) > max {
		s = strings.TrimSpace(string(r[:max]))
	}
	return s
}

// Money is a decimal amount kept at two places. It travels as a fixed-point
// string in JSON, SQL and BSON so totals never pick up float error. JSON
// numbers are accepted on input and parsed exactly.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

func MoneyFromFloat(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f))
}

func (m Money) String() string {
	return m.Decimal.Round(2).StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		m.Decimal = d.Round(2)
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	m.Decimal = d.Round(2)
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

func (m *Money) Scan(value any) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(2)
	return nil
}

func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(m.String())
}

func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeString:
		d, err := decimal.NewFromString(raw.StringValue())
		if err != nil {
			return err
		}
		m.Decimal = d.Round(2)
	case bson.TypeDouble:
		m.Decimal = decimal.NewFromFloat(raw.Double()).Round(2)
	case bson.TypeNull:
		m.Decimal = decimal.Zero
	default:
		return fmt.Errorf("money: unsupported bson type %s", t)
	}
	return nil
}
