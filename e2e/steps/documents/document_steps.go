package documents

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	UploadAs(actor string, names []string, contents [][]byte) error
	ValidateAs(actor, manifestAddress, name string, content []byte) error
	SaveManifestAddress() error
	SavedManifestAddress() string
	GetLastResponseStatus() int
	GetResponseField(field string) (interface{}, error)
}

// RegisterSteps registers document bundle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &documentSteps{tc: tc}

	ctx.Step(`^"([^"]*)" uploads documents:$`, steps.uploadsDocuments)
	ctx.Step(`^"([^"]*)" has uploaded a document with content "([^"]*)"$`, steps.hasUploaded)
	ctx.Step(`^"([^"]*)" validates content "([^"]*)" against the saved manifest address$`, steps.validatesContent)
	ctx.Step(`^an unauthenticated client uploads a document with content "([^"]*)"$`, steps.unauthenticatedUpload)
	ctx.Step(`^the response should carry a manifest address$`, steps.responseCarriesAddress)
}

type documentSteps struct {
	tc TestContext
}

func (s *documentSteps) uploadsDocuments(ctx context.Context, actor string, table *godog.Table) error {
	if len(table.Rows) < 2 {
		return fmt.Errorf("document table needs a header row and at least one document")
	}
	var names []string
	var contents [][]byte
	for _, row := range table.Rows[1:] {
		if len(row.Cells) != 2 {
			return fmt.Errorf("document rows need name and content cells")
		}
		names = append(names, row.Cells[0].Value)
		contents = append(contents, []byte(row.Cells[1].Value))
	}
	return s.tc.UploadAs(actor, names, contents)
}

// hasUploaded is a setup step: it asserts the upload landed and saves the
// manifest address for later steps.
func (s *documentSteps) hasUploaded(ctx context.Context, actor, content string) error {
	if err := s.tc.UploadAs(actor, []string{"document.txt"}, [][]byte{[]byte(content)}); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 201 {
		return fmt.Errorf("upload returned %d", status)
	}
	return s.tc.SaveManifestAddress()
}

func (s *documentSteps) validatesContent(ctx context.Context, actor, content string) error {
	address := s.tc.SavedManifestAddress()
	if address == "" {
		return fmt.Errorf("no manifest address saved by an earlier step")
	}
	return s.tc.ValidateAs(actor, address, "reference.txt", []byte(content))
}

func (s *documentSteps) unauthenticatedUpload(ctx context.Context, content string) error {
	return s.tc.UploadAs("", []string{"document.txt"}, [][]byte{[]byte(content)})
}

func (s *documentSteps) responseCarriesAddress(ctx context.Context) error {
	value, err := s.tc.GetResponseField("manifest_address")
	if err != nil {
		return err
	}
	address, ok := value.(string)
	if !ok || address == "" {
		return fmt.Errorf("manifest_address missing or empty: %v", value)
	}
	return nil
}
