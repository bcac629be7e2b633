package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoSuggestion is returned when the model produced no usable text.
var ErrNoSuggestion = errors.New("no route suggestion generated")

// RouteAdvisor produces free-form route advice for a trip. The text is shown
// to the passenger as is and never inspected by dispatch.
type RouteAdvisor interface {
	Advise(ctx context.Context, pickup, drop string) (string, error)
}

// systemInstruction sets the tone of the advice.
const systemInstruction = "You are a witty but helpful AI traffic navigator. " +
	"Your goal is to suggest an optimized route between a pickup and drop location. " +
	"Consider typical traffic, time of day and potential shortcuts. " +
	"Provide a short, actionable and slightly humorous suggestion as a single paragraph."

func buildRoutePrompt(pickup, drop string) (string, error) {
	pickup = strings.TrimSpace(pickup)
	drop = strings.TrimSpace(drop)
	if pickup == "" || drop == "" {
		return "", errors.New("pickup and drop are required")
	}
	return fmt.Sprintf("Suggest an optimized route from %q to %q.", pickup, drop), nil
}
