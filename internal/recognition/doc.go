// Package recognition turns a window title into structured reading data.
//
// The pipeline is pure and runs on the poll worker:
//
//	Sanitize -> Tokenize -> DetectSite -> Extract + GuessNovelName + GuessSource
//
// Nothing here touches the library or shared state. Malformed titles degrade
// to zero values; index arithmetic clamps instead of panicking.
package recognition
