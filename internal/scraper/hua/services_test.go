package hua

import "testing"

const studentServicesFixture = `
<h3>Σίτιση</h3>
<p>Δωρεάν σίτιση για δικαιούχους φοιτητές. Πληροφορίες: merimna (στο) hua (τελεία) gr, τηλ 210 954 9100.</p>
<h3>Στέγαση</h3>
<p>Φοιτητική εστία στον Ταύρο.</p>
<h3>Κενή Ενότητα</h3>`

func TestParseStudentServicesPage(t *testing.T) {
	doc := mustDoc(t, studentServicesFixture)
	services := parseStudentServicesPage(doc, "https://dit.hua.gr/services")

	if len(services) != 2 {
		t.Fatalf("got %d services %v, want 2", len(services), services)
	}

	s := services[0]
	if s.Name != "Σίτιση" {
		t.Errorf("name = %q", s.Name)
	}
	if s.Email != "merimna@hua.gr" {
		t.Errorf("email = %q", s.Email)
	}
	if s.Phone != "210 954 9100" {
		t.Errorf("phone = %q", s.Phone)
	}
	if s.URL != "https://dit.hua.gr/services" {
		t.Errorf("url = %q", s.URL)
	}

	s = services[1]
	if s.Name != "Στέγαση" || s.Description != "Φοιτητική εστία στον Ταύρο." {
		t.Errorf("second service = %q %q", s.Name, s.Description)
	}
	if s.Email != "" || s.Phone != "" {
		t.Errorf("section without contacts got email %q phone %q", s.Email, s.Phone)
	}
}

const eplatformsFixture = `
<div class="row">
	<p><strong>E-Class</strong> – Πλατφόρμα ασύγχρονης τηλεκπαίδευσης.
		<a href="https://eclass.hua.gr">Σύνδεση</a></p>
	<p><b>E-Study</b>: Ηλεκτρονική γραμματεία φοιτητών.
		<a href="/e-study">Οδηγός</a></p>
	<p><strong>Χωρίς περιγραφή</strong></p>
</div>`

func TestParseEPlatformsPage(t *testing.T) {
	doc := mustDoc(t, eplatformsFixture)
	platforms := parseEPlatformsPage(doc, "https://dit.hua.gr")

	if len(platforms) != 2 {
		t.Fatalf("got %d platforms %v, want 2", len(platforms), platforms)
	}

	p := platforms[0]
	if p.Name != "E-Class" {
		t.Errorf("name = %q", p.Name)
	}
	if p.URL != "https://eclass.hua.gr" {
		t.Errorf("url = %q", p.URL)
	}

	p = platforms[1]
	if p.Name != "E-Study" {
		t.Errorf("name = %q", p.Name)
	}
	if p.Description != "Ηλεκτρονική γραμματεία φοιτητών. Οδηγός" {
		t.Errorf("description = %q", p.Description)
	}
	if p.URL != "https://dit.hua.gr/e-study" {
		t.Errorf("url = %q", p.URL)
	}
}
