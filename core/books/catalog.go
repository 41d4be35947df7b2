package books

import (
	"strconv"
	"strings"
)

// Language is a display language for canonical book names.
type Language string

// Supported display languages.
const (
	English Language = "en"
	French  Language = "fr"
	Spanish Language = "es"
	Italian Language = "it"
	German  Language = "de"
)

// Languages lists the display languages in table order.
var Languages = []Language{English, French, Spanish, Italian, German}

// Testament is the Old or New Testament.
type Testament string

// Testament values.
const (
	OldTestament Testament = "old"
	NewTestament Testament = "new"
)

// Book is one canonical book with its display names and known abbreviation
// variants.
type Book struct {
	Code      string
	Testament Testament
	Names     map[Language]string
	Abbrevs   []string
}

// Name returns the display name in lang, or "" when none is known.
func (b Book) Name(lang Language) string {
	return b.Names[lang]
}

// names builds a display-name table in Languages order.
func names(en, fr, es, it, de string) map[Language]string {
	return map[Language]string{
		English: en,
		French:  fr,
		Spanish: es,
		Italian: it,
		German:  de,
	}
}

func book(code string, t Testament, n map[Language]string, abbrevs ...string) Book {
	return Book{Code: code, Testament: t, Names: n, Abbrevs: abbrevs}
}

// numbered expands a numbered book ("1 Samuel", "2 Samuel") from its base
// names. German uses the ordinal form "1. Samuel".
func numbered(n int, code string, t Testament, base map[Language]string, abbrevs ...string) Book {
	prefix := strconv.Itoa(n)

	named := make(map[Language]string, len(base))
	for lang, name := range base {
		if lang == German {
			named[lang] = prefix + ". " + name
			continue
		}
		named[lang] = prefix + " " + name
	}

	prefixed := make([]string, 0, len(abbrevs))
	for _, a := range abbrevs {
		prefixed = append(prefixed, prefix+a)
	}

	return Book{Code: prefix + code, Testament: t, Names: named, Abbrevs: prefixed}
}

// canon is the 66-book Protestant canon in order.
var canon = []Book{
	book("Gen", OldTestament, names("Genesis", "Genèse", "Génesis", "Genesi", "1. Mose"), "gn", "ge", "1mo", "1mose"),
	book("Exod", OldTestament, names("Exodus", "Exode", "Éxodo", "Esodo", "2. Mose"), "ex", "exo", "2mo", "2mose"),
	book("Lev", OldTestament, names("Leviticus", "Lévitique", "Levítico", "Levitico", "3. Mose"), "lv", "le", "3mo", "3mose"),
	book("Num", OldTestament, names("Numbers", "Nombres", "Números", "Numeri", "4. Mose"), "nb", "nm", "nu", "4mo", "4mose"),
	book("Deut", OldTestament, names("Deuteronomy", "Deutéronome", "Deuteronomio", "Deuteronomio", "5. Mose"), "deu", "dt", "5mo", "5mose"),
	book("Josh", OldTestament, names("Joshua", "Josué", "Josué", "Giosuè", "Josua"), "jos", "gs", "gios"),
	book("Judg", OldTestament, names("Judges", "Juges", "Jueces", "Giudici", "Richter"), "jdg", "jg", "jue", "gdc", "ri"),
	book("Ruth", OldTestament, names("Ruth", "Ruth", "Rut", "Rut", "Rut"), "rt", "ru"),
	numbered(1, "Sam", OldTestament, names("Samuel", "Samuel", "Samuel", "Samuele", "Samuel"), "sa", "sam", "s", "sm"),
	numbered(2, "Sam", OldTestament, names("Samuel", "Samuel", "Samuel", "Samuele", "Samuel"), "sa", "sam", "s", "sm"),
	numbered(1, "Kgs", OldTestament, names("Kings", "Rois", "Reyes", "Re", "Könige"), "ki", "kgs", "r", "re", "ko", "kon"),
	numbered(2, "Kgs", OldTestament, names("Kings", "Rois", "Reyes", "Re", "Könige"), "ki", "kgs", "r", "re", "ko", "kon"),
	numbered(1, "Chr", OldTestament, names("Chronicles", "Chroniques", "Crónicas", "Cronache", "Chronik"), "ch", "chr", "cr", "cro", "chron"),
	numbered(2, "Chr", OldTestament, names("Chronicles", "Chroniques", "Crónicas", "Cronache", "Chronik"), "ch", "chr", "cr", "cro", "chron"),
	book("Ezra", OldTestament, names("Ezra", "Esdras", "Esdras", "Esdra", "Esra"), "ezr", "esd", "esr"),
	book("Neh", OldTestament, names("Nehemiah", "Néhémie", "Nehemías", "Neemia", "Nehemia"), "ne", "nee"),
	book("Esth", OldTestament, names("Esther", "Esther", "Ester", "Ester", "Ester"), "est", "et"),
	book("Job", OldTestament, names("Job", "Job", "Job", "Giobbe", "Hiob"), "jb", "gb", "hi"),
	book("Ps", OldTestament, names("Psalms", "Psaumes", "Salmos", "Salmi", "Psalmen"), "psa", "psalm", "psaume", "sal", "sl"),
	book("Prov", OldTestament, names("Proverbs", "Proverbes", "Proverbios", "Proverbi", "Sprüche"), "pro", "pr", "pv", "prv", "spr"),
	book("Eccl", OldTestament, names("Ecclesiastes", "Ecclésiaste", "Eclesiastés", "Ecclesiaste", "Prediger"), "ecc", "ec", "qo", "qoh", "pred", "koh"),
	book("Song", OldTestament, names("Song of Solomon", "Cantique des cantiques", "Cantares", "Cantico dei Cantici", "Hohelied"), "sng", "son", "sos", "ct", "cant", "ca", "hl", "hld"),
	book("Isa", OldTestament, names("Isaiah", "Ésaïe", "Isaías", "Isaia", "Jesaja"), "is", "es", "esa", "jes"),
	book("Jer", OldTestament, names("Jeremiah", "Jérémie", "Jeremías", "Geremia", "Jeremia"), "jr", "ger"),
	book("Lam", OldTestament, names("Lamentations", "Lamentations", "Lamentaciones", "Lamentazioni", "Klagelieder"), "la", "lm", "klgl"),
	book("Ezek", OldTestament, names("Ezekiel", "Ézéchiel", "Ezequiel", "Ezechiele", "Hesekiel"), "eze", "ez", "hes"),
	book("Dan", OldTestament, names("Daniel", "Daniel", "Daniel", "Daniele", "Daniel"), "da", "dn"),
	book("Hos", OldTestament, names("Hosea", "Osée", "Oseas", "Osea", "Hosea"), "os"),
	book("Joel", OldTestament, names("Joel", "Joël", "Joel", "Gioele", "Joel"), "joe", "jl", "gl"),
	book("Amos", OldTestament, names("Amos", "Amos", "Amós", "Amos", "Amos"), "amo", "am"),
	book("Obad", OldTestament, names("Obadiah", "Abdias", "Abdías", "Abdia", "Obadja"), "oba", "ab", "abd", "ob"),
	book("Jonah", OldTestament, names("Jonah", "Jonas", "Jonás", "Giona", "Jona"), "jon", "jnh", "gio"),
	book("Mic", OldTestament, names("Micah", "Michée", "Miqueas", "Michea", "Micha"), "mi"),
	book("Nah", OldTestament, names("Nahum", "Nahum", "Nahúm", "Naum", "Nahum"), "na"),
	book("Hab", OldTestament, names("Habakkuk", "Habacuc", "Habacuc", "Abacuc", "Habakuk"), "ha"),
	book("Zeph", OldTestament, names("Zephaniah", "Sophonie", "Sofonías", "Sofonia", "Zefanja"), "zep", "so", "sof", "zef"),
	book("Hag", OldTestament, names("Haggai", "Aggée", "Hageo", "Aggeo", "Haggai"), "ag", "agg", "hg"),
	book("Zech", OldTestament, names("Zechariah", "Zacharie", "Zacarías", "Zaccaria", "Sacharja"), "zec", "za", "zc", "sach"),
	book("Mal", OldTestament, names("Malachi", "Malachie", "Malaquías", "Malachia", "Maleachi"), "ml"),
	book("Matt", NewTestament, names("Matthew", "Matthieu", "Mateo", "Matteo", "Matthäus"), "mat", "mt"),
	book("Mark", NewTestament, names("Mark", "Marc", "Marcos", "Marco", "Markus"), "mar", "mrk", "mk", "mc", "mr"),
	book("Luke", NewTestament, names("Luke", "Luc", "Lucas", "Luca", "Lukas"), "luk", "lk", "lc", "lu"),
	book("John", NewTestament, names("John", "Jean", "Juan", "Giovanni", "Johannes"), "joh", "jn", "jhn", "gv", "jua"),
	book("Acts", NewTestament, names("Acts", "Actes", "Hechos", "Atti", "Apostelgeschichte"), "act", "ac", "hch", "at", "apg"),
	book("Rom", NewTestament, names("Romans", "Romains", "Romanos", "Romani", "Römer"), "rm", "ro"),
	numbered(1, "Cor", NewTestament, names("Corinthians", "Corinthiens", "Corintios", "Corinzi", "Korinther"), "co", "cor", "kor"),
	numbered(2, "Cor", NewTestament, names("Corinthians", "Corinthiens", "Corintios", "Corinzi", "Korinther"), "co", "cor", "kor"),
	book("Gal", NewTestament, names("Galatians", "Galates", "Gálatas", "Galati", "Galater"), "ga"),
	book("Eph", NewTestament, names("Ephesians", "Éphésiens", "Efesios", "Efesini", "Epheser"), "ep", "ef"),
	book("Phil", NewTestament, names("Philippians", "Philippiens", "Filipenses", "Filippesi", "Philipper"), "phi", "php", "ph", "fil", "flp", "fl"),
	book("Col", NewTestament, names("Colossians", "Colossiens", "Colosenses", "Colossesi", "Kolosser"), "kol"),
	numbered(1, "Thess", NewTestament, names("Thessalonians", "Thessaloniciens", "Tesalonicenses", "Tessalonicesi", "Thessalonicher"), "th", "thes", "ts", "tes"),
	numbered(2, "Thess", NewTestament, names("Thessalonians", "Thessaloniciens", "Tesalonicenses", "Tessalonicesi", "Thessalonicher"), "th", "thes", "ts", "tes"),
	numbered(1, "Tim", NewTestament, names("Timothy", "Timothée", "Timoteo", "Timoteo", "Timotheus"), "ti", "tm"),
	numbered(2, "Tim", NewTestament, names("Timothy", "Timothée", "Timoteo", "Timoteo", "Timotheus"), "ti", "tm"),
	book("Titus", NewTestament, names("Titus", "Tite", "Tito", "Tito", "Titus"), "tit", "tt"),
	book("Phlm", NewTestament, names("Philemon", "Philémon", "Filemón", "Filemone", "Philemon"), "phm", "flm", "filem"),
	book("Heb", NewTestament, names("Hebrews", "Hébreux", "Hebreos", "Ebrei", "Hebräer"), "he", "eb", "hebr"),
	book("Jas", NewTestament, names("James", "Jacques", "Santiago", "Giacomo", "Jakobus"), "jam", "jc", "jac", "stg", "gc", "jak"),
	numbered(1, "Pet", NewTestament, names("Peter", "Pierre", "Pedro", "Pietro", "Petrus"), "pe", "p", "pt", "pi"),
	numbered(2, "Pet", NewTestament, names("Peter", "Pierre", "Pedro", "Pietro", "Petrus"), "pe", "p", "pt", "pi"),
	numbered(1, "John", NewTestament, names("John", "Jean", "Juan", "Giovanni", "Johannes"), "jo", "jn", "joh", "jhn", "gv"),
	numbered(2, "John", NewTestament, names("John", "Jean", "Juan", "Giovanni", "Johannes"), "jo", "jn", "joh", "jhn", "gv"),
	numbered(3, "John", NewTestament, names("John", "Jean", "Juan", "Giovanni", "Johannes"), "jo", "jn", "joh", "jhn", "gv"),
	book("Jude", NewTestament, names("Jude", "Jude", "Judas", "Giuda", "Judas"), "jud", "jd", "gd"),
	book("Rev", NewTestament, names("Revelation", "Apocalypse", "Apocalipsis", "Apocalisse", "Offenbarung"), "re", "ap", "apc", "apoc", "offb", "off"),
}

var romanNumerals = map[string]string{"1": "i", "2": "ii", "3": "iii"}

// Catalog resolves abbreviation variants to canonical codes and codes to
// display names. It is read-only after construction and safe for concurrent
// use.
type Catalog struct {
	books    []Book
	byCode   map[string]int
	variants map[string]string
}

// NewCatalog indexes books. Variants are registered in priority order:
// codes and abbreviations of every book first, then display names, then
// Roman-numeral forms of numbered display names. The first registration of
// a variant wins.
func NewCatalog(books []Book) *Catalog {
	c := &Catalog{
		books:    books,
		byCode:   make(map[string]int, len(books)),
		variants: make(map[string]string),
	}

	for i, b := range books {
		c.byCode[b.Code] = i
		c.register(b.Code, b.Code)
		for _, a := range b.Abbrevs {
			c.register(a, b.Code)
		}
	}

	for _, b := range books {
		for _, lang := range Languages {
			if name := b.Names[lang]; name != "" {
				c.register(name, b.Code)
			}
		}
	}

	for _, b := range books {
		for _, lang := range Languages {
			name := b.Names[lang]
			digit, rest, ok := strings.Cut(name, " ")
			roman, isNumbered := romanNumerals[strings.TrimSuffix(digit, ".")]
			if ok && isNumbered {
				c.register(roman+" "+rest, b.Code)
			}
		}
	}

	return c
}

func (c *Catalog) register(variant, code string) {
	key := compactKey(DeriveBookKey(variant))
	if key == "" {
		return
	}
	if _, taken := c.variants[key]; !taken {
		c.variants[key] = code
	}
}

// CanonicalCode maps a book key (or any raw abbreviation) to its canonical
// code.
func (c *Catalog) CanonicalCode(bookKey string) (string, bool) {
	code, ok := c.variants[compactKey(DeriveBookKey(bookKey))]
	return code, ok
}

// Book returns the catalog entry for a canonical code.
func (c *Catalog) Book(code string) (Book, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return Book{}, false
	}
	return c.books[i], true
}

// Books returns the catalog entries in canonical order.
func (c *Catalog) Books() []Book {
	out := make([]Book, len(c.books))
	copy(out, c.books)
	return out
}

// ResolveCanonicalName returns the display name in lang of the book behind
// bookKey. When the key has no canonical code, or the code has no name in
// lang, the abbreviation as typed in the source is returned.
func (c *Catalog) ResolveCanonicalName(bookKey, bookAbbrev string, lang Language) string {
	code, ok := c.CanonicalCode(bookKey)
	if !ok {
		return bookAbbrev
	}
	b, _ := c.Book(code)
	if name := b.Name(lang); name != "" {
		return name
	}
	return bookAbbrev
}

var defaultCatalog = NewCatalog(canon)

// DefaultCatalog returns the built-in five-language catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// CanonicalCode resolves against the default catalog.
func CanonicalCode(bookKey string) (string, bool) {
	return defaultCatalog.CanonicalCode(bookKey)
}

// ResolveCanonicalName resolves against the default catalog.
func ResolveCanonicalName(bookKey, bookAbbrev string, lang Language) string {
	return defaultCatalog.ResolveCanonicalName(bookKey, bookAbbrev, lang)
}
