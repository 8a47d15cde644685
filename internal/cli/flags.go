package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/caseflow/internal/domain"
	"github.com/alexanderramin/caseflow/internal/identity"
)

// callerValue is a pflag.Value holding the "role:user" identity.
type callerValue struct {
	caller domain.Caller
	set    bool
}

var _ pflag.Value = (*callerValue)(nil)

func (v *callerValue) String() string {
	if !v.set {
		return ""
	}
	return v.caller.String()
}

func (v *callerValue) Set(s string) error {
	c, err := identity.ParseCaller(s)
	if err != nil {
		return err
	}
	v.caller, v.set = c, true
	return nil
}

func (v *callerValue) Type() string { return "role:user" }

// require returns the caller or explains how to set one.
func (o *globalOptions) require() (domain.Caller, error) {
	if !o.caller.set {
		return domain.Caller{}, fmt.Errorf("no caller: pass --as role:user or set CASEFLOW_AS")
	}
	return o.caller.caller, nil
}

// print writes v as indented JSON with --json, otherwise the formatted text.
func (o *globalOptions) print(cmd *cobra.Command, v any, formatted func() string) error {
	out := cmd.OutOrStdout()
	if o.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprint(out, formatted())
	return err
}

func stageArg(s string) (domain.Stage, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, domain.NewError(domain.CodeUnknownStage, fmt.Sprintf("stage %q is not a number", s))
	}
	return domain.Stage(n), nil
}

// readDocument reads a YAML or JSON document from path ("-" is stdin) and
// returns it as JSON.
func readDocument(cmd *cobra.Command, path string) ([]byte, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, domain.Validationf(fmt.Sprintf("%s is not valid YAML or JSON: %v", path, err))
	}
	return json.Marshal(normalizeYAML(doc))
}

// normalizeYAML makes a decoded YAML tree JSON-encodable. Unquoted dates
// decode to time.Time; they go back to YYYY-MM-DD when they carry no clock.
func normalizeYAML(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, item := range v {
			v[k] = normalizeYAML(item)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = normalizeYAML(item)
		}
		return v
	case time.Time:
		if v.Equal(v.Truncate(24 * time.Hour)) {
			return v.Format("2006-01-02")
		}
		return v.Format(time.RFC3339)
	}
	return v
}
