// Package books resolves book identity for parsed corpora.
//
// A book has three distinct names, and they must not be conflated:
//
//   - the book key, a per-corpus slug derived from the source file's own
//     abbreviation (DeriveBookKey); it indexes verses and never changes once
//     assigned;
//   - the canonical code, a standard short identifier such as "Gen" or
//     "1Cor" found through a table of abbreviation variants (CanonicalCode);
//   - the display name, looked up from the canonical code in a
//     language-specific table (ResolveCanonicalName), falling back to the
//     abbreviation as typed in the source.
//
// Testament membership for random sampling is a separate heuristic based on
// configurable key substrings (TestamentClassifier).
package books
