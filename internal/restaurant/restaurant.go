// Package restaurant holds the payloads the load scenario sends to the
// restaurant service.
package restaurant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Restaurant is the creation payload. ID is only filled in on reads.
type Restaurant struct {
	ID      int64    `json:"id,omitempty"`
	Name    string   `json:"name"`
	Address *Address `json:"address"`
	Menu    *Menu    `json:"menu"`
}

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

type Menu struct {
	Items []MenuItem `json:"items"`
}

// MenuItem prices are decimal strings ("13.14"), never floats.
type MenuItem struct {
	ID    int32  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// ID is the identifier the service assigns on creation. The REST service
// answers with a number, other deployments with a string; both decode.
type ID string

// Valid reports whether the id can address a follow-up request.
func (id ID) Valid() bool { return id != "" }

func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts a JSON string or a JSON integer.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("restaurant id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("restaurant id %s is neither string nor integer", data)
	}
	*id = ID(strconv.FormatInt(n, 10))
	return nil
}

// Int64 converts the id for transports that address restaurants numerically.
func (id ID) Int64() (int64, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("restaurant id %q is not numeric: %w", string(id), err)
	}
	return n, nil
}
