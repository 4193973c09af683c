package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// Plan represents a user's subscription tier
type Plan int

const (
	PlanFree    Plan = 0
	PlanPremium Plan = 1
)

var planNames = [...]string{"free", "premium"}

func (p Plan) String() string {
	if p < PlanFree || int(p) >= len(planNames) {
		return "free"
	}
	return planNames[p]
}

func (p Plan) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Plan) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*p = Plan(i)
		return nil
	}
	switch str {
	case "free":
		*p = PlanFree
	case "premium":
		*p = PlanPremium
	}
	return nil
}

func (p Plan) Value() (driver.Value, error) {
	return int64(p), nil
}

func (p *Plan) Scan(value interface{}) error {
	if value == nil {
		*p = PlanFree
		return nil
	}
	switch v := value.(type) {
	case int64:
		*p = Plan(v)
	case int:
		*p = Plan(v)
	}
	return nil
}
