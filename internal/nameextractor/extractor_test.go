package nameextractor

import "testing"

func TestFromGreeting_ExtractsAndRejectsStopwords(t *testing.T) {
	name, ok := FromGreeting("Hi Marcus, your weekly pay statement is ready.")
	if !ok || name != "Marcus" {
		t.Fatalf("got %q, %v", name, ok)
	}

	if _, ok := FromGreeting("Hi Dasher, welcome to the team."); ok {
		t.Fatal("expected stopword 'Dasher' to be rejected")
	}
}

func TestFromLocalPart_SplitsKnownPrefix(t *testing.T) {
	last, ok := FromLocalPart("marcusreed42", "Marcus")
	if !ok || last != "Reed" {
		t.Fatalf("got %q, %v", last, ok)
	}
}

func TestFromLocalPart_NoPrefixMatch(t *testing.T) {
	if _, ok := FromLocalPart("janedoe", "Marcus"); ok {
		t.Fatal("expected no match")
	}
}

func TestFromDictionary_LongestPrefixWins(t *testing.T) {
	res, ok := FromDictionary("johnathansmith99")
	if !ok {
		t.Fatal("expected a dictionary match")
	}
	if res.FirstName != "John" && res.FirstName != "Johnathan" {
		t.Fatalf("unexpected first name %q", res.FirstName)
	}
}

func TestExtract_PrefersGreetingOverDictionary(t *testing.T) {
	res, ok := Extract("janedoe99@example.com", []string{"Hi Marcus, thanks for signing up!"})
	if !ok || res.FirstName != "Marcus" {
		t.Fatalf("got %+v, %v", res, ok)
	}
}

func TestExtract_FallsBackToDictionaryWhenNoGreeting(t *testing.T) {
	res, ok := Extract("carlosreyes7@example.com", nil)
	if !ok || res.FirstName != "Carlos" {
		t.Fatalf("got %+v, %v", res, ok)
	}
}
