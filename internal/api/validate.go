package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

func parseLimit(q url.Values) (int, error) {
	v := q.Get("limit")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 500 {
		return 0, fmt.Errorf("limit must be an integer in [1,500], got %q", v)
	}
	return n, nil
}

func validateRunID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("run id %q is not a uuid", id)
	}
	return nil
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}
