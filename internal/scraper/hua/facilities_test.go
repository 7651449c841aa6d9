package hua

import "testing"

const facilitiesFixture = `
<h2>Βιβλιοθήκη</h2>
<p>Η βιβλιοθήκη του τμήματος λειτουργεί στον πρώτο όροφο.</p>
<p>Ωράριο λειτουργίας: Δευτέρα-Παρασκευή 09:00-17:00.</p>
<p>Τηλ: 210 954 9170, Fax: 210 954 9171, email: library (στο) hua (τελεία) gr</p>
<h2>Εργαστήριο Υπολογιστών</h2>
<p>Αίθουσα: 2.3 με 40 θέσεις εργασίας.</p>
<h2>Κενή Ενότητα</h2>
<h3>Χωρίς κείμενο</h3>`

func TestParseFacilitiesPage(t *testing.T) {
	doc := mustDoc(t, facilitiesFixture)
	facilities := parseFacilitiesPage(doc, "https://dit.hua.gr/index.php/el/department-gr/facilities")

	if len(facilities) != 2 {
		t.Fatalf("got %d facilities %v, want 2", len(facilities), facilities)
	}

	f := facilities[0]
	if f.Name != "Βιβλιοθήκη" {
		t.Errorf("name = %q", f.Name)
	}
	if f.WorkingHours != "Δευτέρα-Παρασκευή 09:00-17:00" {
		t.Errorf("hours = %q", f.WorkingHours)
	}
	if f.Phone != "210 954 9170" {
		t.Errorf("phone = %q", f.Phone)
	}
	if f.Fax != "210 954 9171" {
		t.Errorf("fax = %q", f.Fax)
	}
	if f.Email != "library@hua.gr" {
		t.Errorf("email = %q", f.Email)
	}
	if f.URL != "https://dit.hua.gr/index.php/el/department-gr/facilities" {
		t.Errorf("url = %q", f.URL)
	}

	f = facilities[1]
	if f.Name != "Εργαστήριο Υπολογιστών" {
		t.Errorf("name = %q", f.Name)
	}
	if f.Location != "2.3 με 40 θέσεις εργασίας" {
		t.Errorf("location = %q", f.Location)
	}
	if f.Phone != "" || f.Email != "" {
		t.Errorf("section without contacts got phone %q email %q", f.Phone, f.Email)
	}
}
