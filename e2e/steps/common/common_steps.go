package common

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (interface{}, error)
}

// RegisterSteps registers background and generic assertion step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the server is reachable$`, steps.serverIsReachable)

	// Response assertions
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.responseFieldShouldBeString)
	ctx.Step(`^the response field "([^"]*)" should be (\d+)$`, steps.responseFieldShouldBeNumber)
	ctx.Step(`^the response field "([^"]*)" should be (true|false)$`, steps.responseFieldShouldBeBool)
	ctx.Step(`^the response error should be "([^"]*)"$`, steps.responseErrorShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serverIsReachable(ctx context.Context) error {
	if err := s.tc.GET("/healthz", nil); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("health check returned %d", status)
	}
	return nil
}

func (s *commonSteps) responseStatusShouldBe(ctx context.Context, expected int) error {
	if got := s.tc.GetLastResponseStatus(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) responseFieldShouldBeString(ctx context.Context, field, expected string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	got, ok := value.(string)
	if !ok {
		return fmt.Errorf("field %q is %T, not a string", field, value)
	}
	if got != expected {
		return fmt.Errorf("expected %q to be %q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldBeNumber(ctx context.Context, field string, expected int) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	got, ok := value.(float64)
	if !ok {
		return fmt.Errorf("field %q is %T, not a number", field, value)
	}
	if int(got) != expected {
		return fmt.Errorf("expected %q to be %d, got %v", field, expected, got)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldBeBool(ctx context.Context, field, expected string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	got, ok := value.(bool)
	if !ok {
		return fmt.Errorf("field %q is %T, not a boolean", field, value)
	}
	want, err := strconv.ParseBool(expected)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %q to be %v, got %v", field, want, got)
	}
	return nil
}

func (s *commonSteps) responseErrorShouldBe(ctx context.Context, code string) error {
	return s.responseFieldShouldBeString(ctx, "error", code)
}
