// Package codedom provides modular Code DOM tools for the JIT Clean Loop.
//
// These tools enable semantic code navigation and editing, working with
// code elements (functions, classes, methods) rather than raw text.
//
// Tools:
//   - get_elements: List code elements in a file
//   - get_element: Get a specific element by name
//   - edit_lines: Replace a range of lines
//   - insert_lines: Insert lines at a position
//   - delete_lines: Delete a range of lines
//   - run_impacted_tests: Run the tests affected by edited code elements
//   - get_impacted_tests: Report the tests affected by edited code elements
package codedom
