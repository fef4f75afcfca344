// Package diag defines findings: located, rule-tagged issues that the fix
// engine consumes.
//
// # Data model
//
// Finding is the central record. It contains:
//
//   - RuleID – stable rule identifier (e.g. "SP1001") used to pick a fix provider.
//   - DocumentID – the document the finding belongs to.
//   - Span – half-open byte span of the issue in that document.
//   - Properties – string hints for the fixer (replacement text, suppression,
//     anchor kind, guard text). Keys are rule conventions; see the Prop* constants.
//   - Severity and Message – used only for reporting.
//
// Findings are values. The engine never mutates them; WithProperty returns a
// modified copy.
//
// # Producers
//
// Detectors emit findings through the Reporter contract, usually with the
// fluent ReportBuilder. BagReporter collects them into a Bag, which offers
// deterministic sorting and grouping per document and per rule.
//
// External producers hand findings over as YAML or JSON; see LoadFindings.
package diag
