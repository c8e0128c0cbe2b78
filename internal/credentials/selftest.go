package credentials

import (
	"context"
	"encoding/json"
	"fmt"

	"pdfbatch/internal/logging"
	"pdfbatch/internal/pdfapi"

	"github.com/tidwall/gjson"
)

// Verify sends the provider's test request with the named credential. The
// credential is valid when the call succeeds and the response does not
// report "success": false.
func Verify(ctx context.Context, execute func(context.Context, string, pdfapi.RequestSpec) (json.RawMessage, error), provider pdfapi.Provider, name string) error {
	spec := provider.TestRequest()
	logging.Logf(logging.Info, "Verifying credential '%s' against %s (%s)", name, provider.Name(), spec.Endpoint())

	body, err := execute(ctx, name, spec)
	if err != nil {
		return fmt.Errorf("credential '%s' rejected by %s: %w", name, provider.Name(), err)
	}
	if success := gjson.GetBytes(body, "success"); success.Exists() && !success.Bool() {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = "provider reported success=false"
		}
		return fmt.Errorf("credential '%s' rejected by %s: %s", name, provider.Name(), msg)
	}
	return nil
}
