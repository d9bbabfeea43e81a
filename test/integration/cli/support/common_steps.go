package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/noteclean/cmd/noteclean/cmd"
)

// iRun executes a noteclean command line in-process.
func (tc *TestContext) iRun(command string) error {
	command = tc.substitute(command)
	parts := strings.Fields(command)
	if len(parts) == 0 || parts[0] != "noteclean" {
		return fmt.Errorf("commands must start with noteclean: %q", command)
	}

	root := cmd.NewRootCommand(cmd.WithEngineFactory(tc.engines), cmd.WithLogOutput(io.Discard))
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(parts[1:])

	tc.LastCommand = command
	start := time.Now()
	tc.LastError = root.Execute()
	tc.LastDuration = time.Since(start)
	tc.LastStdout = stdout.String()
	tc.LastStderr = stderr.String()
	return nil
}

func (tc *TestContext) theCommandShouldSucceed() error {
	if tc.LastError != nil {
		return fmt.Errorf("command %q failed: %w\nstdout: %s\nstderr: %s",
			tc.LastCommand, tc.LastError, tc.LastStdout, tc.LastStderr)
	}
	return nil
}

func (tc *TestContext) theCommandShouldFail() error {
	if tc.LastError == nil {
		return fmt.Errorf("command %q succeeded when it should have failed\nstdout: %s", tc.LastCommand, tc.LastStdout)
	}
	return nil
}

func (tc *TestContext) theOutputShouldContain(expected string) error {
	expected = tc.substitute(expected)
	if !strings.Contains(tc.LastStdout, expected) {
		return fmt.Errorf("output does not contain %q\nActual output: %s", expected, tc.LastStdout)
	}
	return nil
}

func (tc *TestContext) theOutputShouldBe(expected *godog.DocString) error {
	if got := strings.TrimSpace(tc.LastStdout); got != strings.TrimSpace(expected.Content) {
		return fmt.Errorf("output mismatch\nwant: %q\ngot:  %q", expected.Content, got)
	}
	return nil
}

func (tc *TestContext) theProgressShouldShow(expected string) error {
	if !strings.Contains(tc.LastStderr, expected) {
		return fmt.Errorf("progress output does not contain %q\nActual: %s", expected, tc.LastStderr)
	}
	return nil
}

func (tc *TestContext) theErrorShouldMention(text string) error {
	if tc.LastError == nil {
		return fmt.Errorf("no error occurred, but expected error containing %q", text)
	}
	if !strings.Contains(strings.ToLower(tc.LastError.Error()), strings.ToLower(text)) {
		return fmt.Errorf("error does not contain %q\nActual error: %v", text, tc.LastError)
	}
	return nil
}

// theJSONFieldShouldBe compares a top-level JSON field, rendered with %v.
func (tc *TestContext) theJSONFieldShouldBe(field, want string) error {
	var data map[string]any
	if err := json.Unmarshal([]byte(tc.LastStdout), &data); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\n%s", err, tc.LastStdout)
	}
	val, ok := data[field]
	if !ok {
		return fmt.Errorf("field %q not found in JSON", field)
	}
	if got := fmt.Sprintf("%v", val); got != want {
		return fmt.Errorf("field %q = %s, want %s", field, got, want)
	}
	return nil
}

func (tc *TestContext) aConfigFileWith(content *godog.DocString) error {
	return os.WriteFile(tc.substitute("{tmp}/noteclean.yaml"), []byte(content.Content), 0o600)
}

func (tc *TestContext) theEnvironmentVariableIs(name, value string) error {
	return tc.setEnv(name, value)
}

func (tc *TestContext) theFileShouldExist(path string) error {
	path = tc.substitute(path)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file %s does not exist", path)
		}
		return err
	}
	return nil
}

// RegisterCommonSteps registers command execution and output steps.
func (tc *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, tc.iRun)
	sc.Step(`^the command should succeed$`, tc.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, tc.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, tc.theOutputShouldContain)
	sc.Step(`^the output should be:$`, tc.theOutputShouldBe)
	sc.Step(`^the progress should show "([^"]*)"$`, tc.theProgressShouldShow)
	sc.Step(`^the error should mention "([^"]*)"$`, tc.theErrorShouldMention)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, tc.theJSONFieldShouldBe)
	sc.Step(`^a config file with:$`, tc.aConfigFileWith)
	sc.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, tc.theEnvironmentVariableIs)
	sc.Step(`^the file "([^"]*)" should exist$`, tc.theFileShouldExist)
}
