// Package lang provides per-language resource bundles for the
// classification pipeline: number-word tables, curated typo corrections,
// intent keyword lists and splitter conjunctions. Components dispatch on
// a language.Tag through Bundle lookup instead of branching on language
// codes inline.
package lang

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// Bundle holds the language-specific resources used by the normalizer,
// the typo corrector and the intent classifier. Bundles are immutable
// after process start.
type Bundle struct {
	Tag language.Tag

	numberWords map[string]int64 // units, teens, tens, hundreds
	magnitudes  map[string]int64 // thousand/million with declensions
	negations   map[string]bool

	corrections map[string]string // exact misspelling -> canonical form
	vocabulary  []string          // fuzzy-correction dictionary
	protected   map[string]bool   // brands and domain nouns never corrected

	IncomeKeywords  []string
	BudgetKeywords  []string
	ExpenseVerbs    []string // contextual "spent on" phrasing
	FillerWords     []string // dropped from descriptions
	QuestionMarkers []string
	ChatKeywords    []string // greetings and small talk
	Conjunctions    []string // multi-item separators
}

var (
	english = newEnglishBundle()
	russian = newRussianBundle()

	matcher = language.NewMatcher([]language.Tag{
		language.English,
		language.Russian,
	})
)

// ForTag returns the resource bundle best matching the given tag.
// Unsupported languages resolve to English, whose normalizer and
// corrector behave as near pass-throughs for foreign text.
func ForTag(tag language.Tag) *Bundle {
	_, idx, _ := matcher.Match(tag)
	if idx == 1 {
		return russian
	}
	return english
}

// Detect guesses the message language from its script. A single Cyrillic
// letter is enough to route to the Russian bundle; everything else goes
// to English.
func Detect(text string) language.Tag {
	for _, r := range text {
		if unicode.Is(unicode.Cyrillic, r) {
			return language.Russian
		}
	}
	return language.English
}

// DetectWithHint prefers the sender locale hint when it parses, falling
// back to script detection.
func DetectWithHint(text, hint string) language.Tag {
	if hint != "" {
		if tag, err := language.Parse(hint); err == nil {
			return tag
		}
	}
	return Detect(text)
}

// IsProtected reports whether a token is domain vocabulary that the typo
// corrector must leave alone.
func (b *Bundle) IsProtected(token string) bool {
	return b.protected[strings.ToLower(token)]
}

func newEnglishBundle() *Bundle {
	return &Bundle{
		Tag: language.English,
		numberWords: map[string]int64{
			"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
			"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
			"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
			"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
			"eighteen": 18, "nineteen": 19,
			"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
			"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
			"hundred": 100,
		},
		magnitudes: map[string]int64{
			"thousand": 1_000,
			"million":  1_000_000,
			"k":        1_000,
		},
		negations: map[string]bool{"minus": true},
		corrections: map[string]string{
			"cofee":    "coffee",
			"coffe":    "coffee",
			"taxy":     "taxi",
			"grocerys": "groceries",
			"resturant": "restaurant",
			"restaraunt": "restaurant",
			"sallary":  "salary",
			"salery":   "salary",
			"farmacy":  "pharmacy",
		},
		vocabulary: []string{
			"coffee", "taxi", "bus", "metro", "groceries", "restaurant",
			"pharmacy", "salary", "rent", "internet", "phone", "gym",
			"cinema", "lunch", "dinner", "breakfast", "budget", "gum",
			"bread", "milk", "fuel", "parking",
		},
		protected: map[string]bool{
			"paypal": true, "ikea": true, "spotify": true, "netflix": true,
			"uber": true, "bolt": true, "mts": true, "steam": true,
			"wildberries": true, "ozon": true,
		},
		IncomeKeywords: []string{
			"salary", "income", "received", "earned", "bonus", "cashback",
			"refund", "payout", "freelance",
		},
		BudgetKeywords: []string{"budget", "limit"},
		ExpenseVerbs:   []string{"spent", "paid", "bought"},
		FillerWords: []string{
			"spent", "paid", "bought", "on", "for", "a", "an", "the",
		},
		QuestionMarkers: []string{
			"how", "what", "when", "where", "why", "who", "can", "could",
			"should", "do", "does", "is", "are",
		},
		ChatKeywords: []string{"hello", "hi", "hey", "thanks", "thank", "bye", "ok", "okay"},
		Conjunctions: []string{" and "},
	}
}

func newRussianBundle() *Bundle {
	return &Bundle{
		Tag: language.Russian,
		numberWords: map[string]int64{
			"ноль": 0,
			"один": 1, "одна": 1, "одну": 1, "одного": 1,
			"два": 2, "две": 2, "двух": 2,
			"три": 3, "трех": 3, "трёх": 3,
			"четыре": 4, "четырех": 4, "четырёх": 4,
			"пять": 5, "пяти": 5,
			"шесть": 6, "шести": 6,
			"семь": 7, "семи": 7,
			"восемь": 8, "восьми": 8,
			"девять": 9, "девяти": 9,
			"десять": 10, "десяти": 10,
			"одиннадцать": 11, "двенадцать": 12, "тринадцать": 13,
			"четырнадцать": 14, "пятнадцать": 15, "шестнадцать": 16,
			"семнадцать": 17, "восемнадцать": 18, "девятнадцать": 19,
			"двадцать": 20, "двадцати": 20,
			"тридцать": 30, "тридцати": 30,
			"сорок": 40, "сорока": 40,
			"пятьдесят": 50, "пятидесяти": 50,
			"шестьдесят": 60, "семьдесят": 70, "восемьдесят": 80,
			"девяносто": 90,
			"сто": 100, "ста": 100,
			"двести": 200, "триста": 300, "четыреста": 400,
			"пятьсот": 500, "шестьсот": 600, "семьсот": 700,
			"восемьсот": 800, "девятьсот": 900,
		},
		magnitudes: map[string]int64{
			"тысяча": 1_000, "тысячи": 1_000, "тысяч": 1_000, "тыс": 1_000,
			"к": 1_000,
			"миллион": 1_000_000, "миллиона": 1_000_000,
			"миллионов": 1_000_000, "млн": 1_000_000,
		},
		negations: map[string]bool{"минус": true},
		corrections: map[string]string{
			"кофи":     "кофе",
			"коффе":    "кофе",
			"токси":    "такси",
			"тахси":    "такси",
			"зп":       "зарплата",
			"зарплта":  "зарплата",
			"зорплата": "зарплата",
			"праезд":   "проезд",
			"апетка":   "аптека",
			"оптека":   "аптека",
			"прадукты": "продукты",
		},
		vocabulary: []string{
			"кофе", "такси", "метро", "автобус", "продукты", "ресторан",
			"аптека", "зарплата", "аренда", "интернет", "телефон", "спортзал",
			"кино", "обед", "ужин", "завтрак", "бюджет", "хлеб", "молоко",
			"бензин", "парковка", "проезд", "жвачка",
		},
		protected: map[string]bool{
			"яндекс": true, "сбер": true, "мтс": true, "озон": true,
			"пятерочка": true, "магнит": true, "вкусвилл": true,
		},
		IncomeKeywords: []string{
			"зарплата", "доход", "получил", "получила", "заработал",
			"заработала", "премия", "кэшбек", "кешбэк", "возврат",
			"аванс", "фриланс",
		},
		BudgetKeywords: []string{"бюджет", "лимит"},
		ExpenseVerbs:   []string{"потратил", "потратила", "купил", "купила", "заплатил", "заплатила", "отдал", "отдала"},
		FillerWords: []string{
			"потратил", "потратила", "купил", "купила", "заплатил",
			"заплатила", "отдал", "отдала", "на", "за", "в",
		},
		QuestionMarkers: []string{
			"как", "что", "когда", "где", "почему", "зачем", "кто",
			"сколько", "можно", "ли",
		},
		ChatKeywords: []string{"привет", "здравствуйте", "спасибо", "пока", "ок", "ага", "да", "нет"},
		Conjunctions: []string{" и ", " а также "},
	}
}
