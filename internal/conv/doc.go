// Package conv provides the fixed-width numeric conversions used by the
// vector file format.
//
// Two families exist:
//
//   - Checked conversions (IntToUint32, Uint32ToInt) return ErrOverflow when
//     the value does not fit. They guard header fields: a row or column count
//     that cannot be represented is rejected, never truncated.
//   - Saturating conversions (SaturateUint32, SaturateUint32Float) clamp to the
//     target range. They define how wider or signed element values are stored
//     in uint32 payloads: negatives become 0, values above MaxUint32 become
//     MaxUint32, NaN becomes 0 and fractions truncate toward zero.
//
// Float64ToFloat32 rounds to nearest-even per IEEE-754, which is what a Go
// conversion does; it exists so the rule has a single documented home.
package conv
