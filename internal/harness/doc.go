// Package harness provides conformance testing for 997 validation and
// reconciliation.
//
// The harness loads YAML scenarios, runs each input through the same pipeline
// the CLI and HTTP server use, and checks the outcome against the scenario's
// expectations and assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	parser:
//	  allow_unknown_segments: true
//	input: |
//	  ISA*00*...*>~
//	  GS*FA*...~
//	outbound:
//	  functional_id_code: PO
//	  group_control_number: "1234"
//	  transactions:
//	    - set_id: "850"
//	      control_number: "5678"
//	expect:
//	  status: ACCEPTED
//	  is_valid: true
//	  fully_reconciled: true
//	assertions:
//	  - type: transaction_status
//	    control_number: "5678"
//	    status: ACCEPTED
//
// A scenario whose input must fail sets expect.error to the X12 error code
// (for example EMPTY_INPUT); no other expectation applies in that case.
//
// # Assertion Types
//
//   - transaction_status: the acknowledged transaction has the given status
//   - transaction_errors: the transaction's error codes, in order
//   - reconciliation_status: the control number reconciled with the given status
//   - group_count: the interchange holds exactly count functional groups
//
// # Deterministic Testing
//
// Every scenario runs with a fixed clock, so results and golden snapshots are
// identical across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/accepted.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
