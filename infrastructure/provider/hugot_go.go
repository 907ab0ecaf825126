//go:build !ORT

package provider

import "github.com/knights-analytics/hugot"

// Pure-Go inference, no accelerated runtime.
const ortAccelerated = false

func newHugotSession() (*hugot.Session, error) {
	return hugot.NewGoSession()
}
