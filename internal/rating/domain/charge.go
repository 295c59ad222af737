// Package domain defines the charges produced by the calculators.
package domain

import (
	"encoding/json"

	"github.com/bwmarrin/snowflake"
)

// Kind names a charge variant.
type Kind string

const (
	KindFixed  Kind = "fixed"
	KindTime   Kind = "time"
	KindUsage  Kind = "usage"
	KindBucket Kind = "bucket"
)

// Kinds lists every variant in pipeline order.
var Kinds = []Kind{KindFixed, KindTime, KindUsage, KindBucket}

// Charge is a closed sum type over FixedCharge, TimeCharge, UsageCharge and
// BucketCharge. Consumers branch on it with Accept so that a new variant
// breaks every Visitor at compile time.
type Charge interface {
	Kind() Kind
	Common() ChargeBase
	Accept(v Visitor)
	sealed()
}

// Visitor handles each charge variant.
type Visitor interface {
	VisitFixed(FixedCharge)
	VisitTime(TimeCharge)
	VisitUsage(UsageCharge)
	VisitBucket(BucketCharge)
}

// ChargeBase carries the fields common to every variant. Total is in minor
// currency units. TaxRate is a fraction.
type ChargeBase struct {
	ServiceID   snowflake.ID `json:"serviceId"`
	ServiceName string       `json:"serviceName"`
	Rate        float64      `json:"rate"`
	Total       int64        `json:"total"`
	TaxRate     float64      `json:"tax_rate"`
	TaxAmount   float64      `json:"tax_amount"`
	TaxRegion   string       `json:"tax_region"`
}

// FixedCharge is a recurring plan fee. It is the only prorated variant.
type FixedCharge struct {
	ChargeBase
	Quantity float64 `json:"quantity"`
}

// TimeCharge bills one approved time entry. Duration is in hours.
type TimeCharge struct {
	ChargeBase
	Duration float64      `json:"duration"`
	UserID   snowflake.ID `json:"userId"`
	EntryID  snowflake.ID `json:"entryId"`
}

// UsageCharge bills one usage record.
type UsageCharge struct {
	ChargeBase
	Quantity float64      `json:"quantity"`
	UsageID  snowflake.ID `json:"usageId"`
}

// BucketCharge bills the overage hours beyond a bucket's pool.
type BucketCharge struct {
	ChargeBase
	HoursUsed    float64 `json:"hoursUsed"`
	OverageHours float64 `json:"overageHours"`
	OverageRate  float64 `json:"overageRate"`
}

func (FixedCharge) Kind() Kind  { return KindFixed }
func (TimeCharge) Kind() Kind   { return KindTime }
func (UsageCharge) Kind() Kind  { return KindUsage }
func (BucketCharge) Kind() Kind { return KindBucket }

func (c FixedCharge) Common() ChargeBase  { return c.ChargeBase }
func (c TimeCharge) Common() ChargeBase   { return c.ChargeBase }
func (c UsageCharge) Common() ChargeBase  { return c.ChargeBase }
func (c BucketCharge) Common() ChargeBase { return c.ChargeBase }

func (c FixedCharge) Accept(v Visitor)  { v.VisitFixed(c) }
func (c TimeCharge) Accept(v Visitor)   { v.VisitTime(c) }
func (c UsageCharge) Accept(v Visitor)  { v.VisitUsage(c) }
func (c BucketCharge) Accept(v Visitor) { v.VisitBucket(c) }

func (FixedCharge) sealed()  {}
func (TimeCharge) sealed()   {}
func (UsageCharge) sealed()  {}
func (BucketCharge) sealed() {}

func (c FixedCharge) MarshalJSON() ([]byte, error) {
	type alias FixedCharge
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindFixed, alias(c)})
}

func (c TimeCharge) MarshalJSON() ([]byte, error) {
	type alias TimeCharge
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindTime, alias(c)})
}

func (c UsageCharge) MarshalJSON() ([]byte, error) {
	type alias UsageCharge
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindUsage, alias(c)})
}

func (c BucketCharge) MarshalJSON() ([]byte, error) {
	type alias BucketCharge
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindBucket, alias(c)})
}

// Sum totals the charges in minor units.
func Sum(charges []Charge) int64 {
	var total int64
	for _, c := range charges {
		total += c.Common().Total
	}
	return total
}

// CountByKind tallies charges per variant.
func CountByKind(charges []Charge) map[Kind]int {
	counter := kindCounter{}
	for _, c := range charges {
		c.Accept(counter)
	}
	return counter
}

type kindCounter map[Kind]int

func (k kindCounter) VisitFixed(FixedCharge)   { k[KindFixed]++ }
func (k kindCounter) VisitTime(TimeCharge)     { k[KindTime]++ }
func (k kindCounter) VisitUsage(UsageCharge)   { k[KindUsage]++ }
func (k kindCounter) VisitBucket(BucketCharge) { k[KindBucket]++ }
