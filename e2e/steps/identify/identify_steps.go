package identify

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GetResponseField(field string) (interface{}, error)
	GetLastStatusCode() int
	GetLastResponseBody() []byte
	Expand(s string) string
	Remember(name string, id float64)
	Recall(name string) (float64, bool)
}

// RegisterSteps registers contact reconciliation step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &identifySteps{tc: tc}

	ctx.Step(`^I identify with email "([^"]*)" and phone "([^"]*)"$`, steps.identifyWithBoth)
	ctx.Step(`^I identify with email "([^"]*)"$`, steps.identifyWithEmail)
	ctx.Step(`^I identify with phone "([^"]*)"$`, steps.identifyWithPhone)
	ctx.Step(`^I remember the primary contact as "([^"]*)"$`, steps.rememberPrimary)
	ctx.Step(`^the primary contact should be "([^"]*)"$`, steps.primaryShouldBe)
	ctx.Step(`^the emails should be "([^"]*)"$`, steps.emailsShouldBe)
	ctx.Step(`^the phone numbers should be "([^"]*)"$`, steps.phonesShouldBe)
	ctx.Step(`^there should be (\d+) secondary contacts?$`, steps.secondaryCountShouldBe)
}

type identifySteps struct {
	tc TestContext
}

func (s *identifySteps) identifyWithBoth(ctx context.Context, email, phone string) error {
	return s.identify(map[string]interface{}{"email": s.tc.Expand(email), "phoneNumber": s.tc.Expand(phone)})
}

func (s *identifySteps) identifyWithEmail(ctx context.Context, email string) error {
	return s.identify(map[string]interface{}{"email": s.tc.Expand(email), "phoneNumber": nil})
}

func (s *identifySteps) identifyWithPhone(ctx context.Context, phone string) error {
	return s.identify(map[string]interface{}{"email": nil, "phoneNumber": s.tc.Expand(phone)})
}

func (s *identifySteps) identify(body map[string]interface{}) error {
	if err := s.tc.POST("/identify", body); err != nil {
		return err
	}
	if status := s.tc.GetLastStatusCode(); status != 200 {
		return fmt.Errorf("identify returned %d: %s", status, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *identifySteps) primaryID() (float64, error) {
	v, err := s.tc.GetResponseField("contact.primaryContactId")
	if err != nil {
		return 0, err
	}
	id, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("primaryContactId is %T, want number", v)
	}
	return id, nil
}

func (s *identifySteps) rememberPrimary(ctx context.Context, name string) error {
	id, err := s.primaryID()
	if err != nil {
		return err
	}
	s.tc.Remember(name, id)
	return nil
}

func (s *identifySteps) primaryShouldBe(ctx context.Context, name string) error {
	want, ok := s.tc.Recall(name)
	if !ok {
		return fmt.Errorf("no contact remembered as %q", name)
	}
	got, err := s.primaryID()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected primary %q (%v), got %v", name, want, got)
	}
	return nil
}

func (s *identifySteps) emailsShouldBe(ctx context.Context, expected string) error {
	return s.listShouldBe("contact.emails", expected)
}

func (s *identifySteps) phonesShouldBe(ctx context.Context, expected string) error {
	return s.listShouldBe("contact.phoneNumbers", expected)
}

func (s *identifySteps) listShouldBe(field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	items, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("%s is %T, want array", field, v)
	}
	got := make([]string, len(items))
	for i, item := range items {
		got[i] = fmt.Sprint(item)
	}
	want := strings.Split(s.tc.Expand(expected), ",")
	for i := range want {
		want[i] = strings.TrimSpace(want[i])
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected %s to be %v, got %v", field, want, got)
	}
	return nil
}

func (s *identifySteps) secondaryCountShouldBe(ctx context.Context, expected int) error {
	v, err := s.tc.GetResponseField("contact.secondaryContactIds")
	if err != nil {
		return err
	}
	items, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("secondaryContactIds is %T, want array", v)
	}
	if len(items) != expected {
		return fmt.Errorf("expected %d secondary contacts, got %d", expected, len(items))
	}
	return nil
}
