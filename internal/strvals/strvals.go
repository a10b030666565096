// Package strvals parses "key=value,key=[a,b]" configuration lines.
package strvals

import "fmt"

// Token is a key and its value. Inside is '[' for array values.
type Token struct {
	Key, Value string
	Inside     rune
}

type tokenizer struct {
	i          int
	s          string
	currentKey string
}

func (t *tokenizer) readKey() (string, error) {
	start := t.i
	for ; t.i < len(t.s); t.i++ {
		if t.s[t.i] == '=' && t.i != len(t.s)-1 {
			t.i++
			return t.s[start : t.i-1], nil
		}
		if t.s[t.i] == ',' {
			k := t.s[start:t.i]
			return k, fmt.Errorf("key `%s` with no value", k)
		}
	}

	s := t.s[start:]
	return s, fmt.Errorf("key `%s` with no value", s)
}

func (t *tokenizer) readValue() string {
	start := t.i
	for ; t.i < len(t.s); t.i++ {
		if t.s[t.i] == ',' {
			t.i++
			return t.s[start : t.i-1]
		}
	}

	return t.s[start:]
}

func (t *tokenizer) readArray() (string, error) {
	start := t.i
	for ; t.i < len(t.s); t.i++ {
		if t.s[t.i] == ']' {
			if t.i+1 == len(t.s) || t.s[t.i+1] == ',' {
				t.i += 2
				return t.s[start : t.i-2], nil
			}
			t.i++
			return t.s[start : t.i-1], fmt.Errorf("there was no ',' after an array with key '%s'", t.currentKey)
		}
	}
	return t.s[start:], fmt.Errorf("array value for key `%s` didn't end", t.currentKey)
}

// Parse splits s into tokens.
func Parse(s string) ([]Token, error) {
	result := []Token{}
	t := &tokenizer{s: s}

	var err error
	var key, value string
	for t.i < len(s) {
		t.currentKey, err = t.readKey()
		if err != nil {
			return nil, err
		}
		key = t.currentKey
		if t.s[t.i] == '[' {
			t.i++
			value, err = t.readArray()

			result = append(result, Token{
				Key:    key,
				Value:  value,
				Inside: '[',
			})
			if err != nil {
				return nil, err
			}
		} else {
			value = t.readValue()
			result = append(result, Token{
				Key:   key,
				Value: value,
			})
		}
	}

	return result, nil
}
