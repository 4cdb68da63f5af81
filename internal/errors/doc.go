// Package errors provides coded, structured errors for gousse.
//
// Every failure the library reports carries a stable code (e.g. "G010")
// that maps to a category, a short message and a longer explanation.
// Codes let callers match failures with errors.Is/As without parsing
// messages, and let the CLI print a consistent report.
//
// # Error Categories
//
//   - dom: selector and tree errors
//   - component: custom element definition and rendering errors
//   - router: pattern and navigation errors
//   - template: interpolation errors from annotation attributes
//   - deferred: rejected deferred values
//   - config: configuration and site file errors
//   - protocol: live session frame errors
//
// # Usage
//
//	err := errors.New("G010").WithDetail(pattern).Wrap(cause)
//	fmt.Println(err.Format())
package errors
