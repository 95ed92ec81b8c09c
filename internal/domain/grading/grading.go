// Package grading подсчитывает результат квиза по ответам пользователя.
// Подсчет чистый: без побочных эффектов и обращений к хранилищу.
package grading

import "strings"

// Separator соединяет элементы ответа-массива перед сравнением
const Separator = ","

// Answer ответ на вопрос. Ответ из одного значения хранится как срез из одного элемента,
// ответ-массив сравнивается поэлементно в исходном порядке.
type Answer []string

// Text возвращает ответ, приведенный к виду для сравнения
func (a Answer) Text() string {
	return strings.ToLower(strings.TrimSpace(strings.Join(a, Separator)))
}

// Blank сообщает, что ответ отсутствует или состоит только из пробелов
func (a Answer) Blank() bool {
	for _, v := range a {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Item пара "эталонный ответ / ответ пользователя" для одного вопроса
type Item struct {
	Correct   Answer
	Submitted Answer
}

// Result итог проверки. Right + Wrong всегда равно количеству вопросов.
type Result struct {
	Right int `json:"right"`
	Wrong int `json:"wrong"`
}

// Total возвращает количество проверенных вопросов
func (r Result) Total() int {
	return r.Right + r.Wrong
}

// Percentage возвращает долю правильных ответов в процентах
func (r Result) Percentage() float64 {
	if r.Total() == 0 {
		return 0
	}
	return float64(r.Right) * 100 / float64(r.Total())
}

// Grade проверяет ответы по порядку вопросов.
// Неотвеченный вопрос считается неверным, как и ответ на вопрос без эталона.
func Grade(items []Item) Result {
	var res Result
	for _, it := range items {
		if correct(it) {
			res.Right++
		} else {
			res.Wrong++
		}
	}
	return res
}

func correct(it Item) bool {
	if it.Submitted.Blank() || it.Correct.Blank() {
		return false
	}
	return it.Submitted.Text() == it.Correct.Text()
}

// Build собирает элементы проверки из эталонных ответов и ответов пользователя по индексам.
// Вопросы без ответа в submitted получают пустой ответ.
func Build(correctAnswers []string, submitted map[int]Answer) []Item {
	items := make([]Item, len(correctAnswers))
	for i, c := range correctAnswers {
		items[i] = Item{Correct: Answer{c}, Submitted: submitted[i]}
	}
	return items
}
