package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// ClientStatus represents whether a client relationship is active
type ClientStatus int

const (
	ClientStatusActive   ClientStatus = 0
	ClientStatusInactive ClientStatus = 1
)

var clientStatusNames = [...]string{"active", "inactive"}

func (s ClientStatus) String() string {
	if s < ClientStatusActive || int(s) >= len(clientStatusNames) {
		return "active"
	}
	return clientStatusNames[s]
}

// ParseClientStatus converts a wire name into a ClientStatus
func ParseClientStatus(name string) (ClientStatus, bool) {
	for i, n := range clientStatusNames {
		if n == name {
			return ClientStatus(i), true
		}
	}
	return ClientStatusActive, false
}

func (s ClientStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ClientStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = ClientStatus(i)
		return nil
	}
	if parsed, ok := ParseClientStatus(str); ok {
		*s = parsed
	}
	return nil
}

func (s ClientStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *ClientStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ClientStatusActive
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = ClientStatus(v)
	case int:
		*s = ClientStatus(v)
	}
	return nil
}
