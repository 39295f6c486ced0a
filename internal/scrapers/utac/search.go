package utac

import (
	"context"
	"fmt"
	"utac-backend/internal/components/assert"
	"utac-backend/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
)

const report_executor_execute = "executor.execute"

// Executor submits the search form in one of the two search modes.
type Executor struct {
	transport Transport
	searchUrl string
	tel       telemetry.API
}

func NewExecutor(transport Transport, searchUrl string, tel telemetry.API) Executor {
	assert.NotNil(transport)
	assert.NotEmptyStr(searchUrl)
	assert.NotNil(tel)
	return Executor{
		transport: transport,
		searchUrl: searchUrl,
		tel:       tel,
	}
}

// Execute loads the search page for fresh hidden state, then posts the
// search and returns the first page of results.
func (e Executor) Execute(ctx context.Context, mode Mode, value string) (*goquery.Document, error) {
	e.tel.ReportDebug("execute search", mode.String(), value)

	page, err := get(ctx, e.transport, e.searchUrl)
	if err != nil {
		return nil, fmt.Errorf("load search page: %w", err)
	}

	state, err := ExtractFormState(page)
	if err != nil {
		e.tel.ReportBroken(report_executor_execute, err, e.searchUrl)
		return nil, err
	}
	controls, err := FindControls(page)
	if err != nil {
		e.tel.ReportBroken(report_executor_execute, err, e.searchUrl)
		return nil, err
	}

	payload := SearchPayload(state, controls, controls.Criteria(mode, value))
	results, err := post(ctx, e.transport, e.searchUrl, payload)
	if err != nil {
		return nil, fmt.Errorf("submit search: %w", err)
	}
	return results, nil
}
