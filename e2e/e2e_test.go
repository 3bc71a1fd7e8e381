package e2e

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
)

var opts = godog.Options{
	Output: colors.Colored(os.Stdout),
	Format: "pretty",
	Paths:  []string{"features"},
	Strict: true,
	// Every scenario runs against its own in-process server.
	Concurrency: 4,
}

func init() {
	godog.BindCommandLineFlags("godog.", &opts)
}

func TestFeatures(t *testing.T) {
	flag.Parse()
	opts.TestingT = t

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options:             &opts,
	}

	if status := suite.Run(); status != 0 {
		t.Fatalf("feature suite failed with status %d", status)
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	tc := &TestContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		*tc = *NewTestContext()
		return ctx, nil
	})

	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if err != nil {
			fmt.Printf("scenario %q failed; last response (%d): %s\n", sc.Name, tc.GetLastResponseStatus(), tc.LastResponseBody)
		}
		tc.Close()
		return ctx, nil
	})

	RegisterSteps(sc, tc)
}
