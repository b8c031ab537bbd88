// Package catalog holds the static reference data the wizard offers:
// sound department staff, the two venues, and each venue's repertoire.
package catalog

// Venue names.
const (
	Bronnaya = "Бронная"
	Melnikov = "Мельников"
)

// Staff lists the department employees in display order.
var Staff = []string{
	"Казаченкова",
	"Гвоздева",
	"Богданов",
	"Петрова",
	"Кожин",
	"Курланов",
	"Салакаев",
	"Климентьев",
	"Иванов",
	"Трембицкий",
}

// Venues lists the stages in display order.
var Venues = []string{Bronnaya, Melnikov}

var venueCodes = map[string]string{
	Bronnaya: "BRN",
	Melnikov: "MLN",
}

var plays = map[string][]string{
	Bronnaya: {
		"12-я ночь",
		"Бесы",
		"Бэтмен",
		"Благо",
		"Вероника",
		"Гамлет",
		"Гордая",
		"Дачники",
		"Дядя Лёва",
		"Змея",
		"Калина Красная",
		"Капитанская дочка",
		"Молодожёны",
		"Невесты",
		"Незнайка",
		"Одна и Один",
		"Пигмалион",
		"Привидение",
		"Слава",
		"Таня",
		"Тузенбах",
		"Чайка",
		"Шкаф",
	},
	Melnikov: {
		"Баня",
		"Гора",
		"Дети солнца",
		"Зори",
		"Лукич",
		"Москва",
		"Снегурочка",
		"Туника",
		"Путаны",
		"Царь-девица",
	},
}

// IsVenue reports whether name is one of the known venues.
func IsVenue(name string) bool {
	_, ok := plays[name]
	return ok
}

// Plays returns the repertoire of a venue, or nil for an unknown venue.
func Plays(venue string) []string {
	return plays[venue]
}

// Play returns the i-th play of a venue. ok is false when the venue is
// unknown or i is out of range.
func Play(venue string, i int) (string, bool) {
	list := plays[venue]
	if i < 0 || i >= len(list) {
		return "", false
	}
	return list[i], true
}

// VenueCode returns the short code used in picker payloads.
func VenueCode(venue string) string {
	return venueCodes[venue]
}

// VenueByCode resolves a picker code back to a venue name.
func VenueByCode(code string) (string, bool) {
	for v, c := range venueCodes {
		if c == code {
			return v, true
		}
	}
	return "", false
}

// AllPlays returns every play, venues in display order.
func AllPlays() []string {
	var all []string
	for _, v := range Venues {
		all = append(all, plays[v]...)
	}
	return all
}

// Employee returns the i-th staff member.
func Employee(i int) (string, bool) {
	if i < 0 || i >= len(Staff) {
		return "", false
	}
	return Staff[i], true
}
