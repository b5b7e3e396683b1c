package mirrorengine

import "errors"

// Sentinel errors surfaced by the Engine. Callers should use errors.Is
// against these, since call sites wrap them with additional context via
// fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidKeyGlyph is returned when a grid byte fed to Set is outside
	// the recognized glyph set ('/', '-', '\\', ' ').
	ErrInvalidKeyGlyph = errors.New("mirrorengine: invalid key glyph")

	// ErrDuplicatePerimeter is returned by Validate when two perimeter
	// slots hold the same byte.
	ErrDuplicatePerimeter = errors.New("mirrorengine: duplicate perimeter character")

	// ErrOverflowingKey is returned when more than N*N+P bytes are fed to
	// Set.
	ErrOverflowingKey = errors.New("mirrorengine: key exceeds expected length")

	// ErrUnknownInput is returned by Crypt when the input byte is not
	// present anywhere on the perimeter.
	ErrUnknownInput = errors.New("mirrorengine: input character not present on perimeter")

	// ErrNotReady is returned by Crypt (or Validate) when the engine has
	// not successfully loaded and validated a key.
	ErrNotReady = errors.New("mirrorengine: engine not ready")

	// ErrClosed is returned by any call made after Close.
	ErrClosed = errors.New("mirrorengine: engine is closed")
)
