package config

import (
	"fmt"
	"strconv"
	"strings"
)

// parsePort accepts "8080" or ":8080".
func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), ":"))
	if err != nil {
		return 0, err
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port number: %d", port)
	}
	return port, nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
