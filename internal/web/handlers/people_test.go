package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func createTestPerson(t *testing.T, handler *PeopleHandler, patientID, name string) personResponse {
	t.Helper()

	req := jsonRequest(t, "POST", "/api/v1/people", personRequest{
		PatientID:    patientID,
		Name:         name,
		Relationship: "daughter",
	})
	recorder := httptest.NewRecorder()
	handler.Create(recorder, req)
	assertStatusCode(t, recorder, http.StatusCreated)

	var person personResponse
	parseJSONResponse(t, recorder, &person)
	return person
}

func TestPeopleCreate(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)

	person := createTestPerson(t, handler, "patient-1", "Anna")
	if person.ID == "" {
		t.Error("expected a generated person ID")
	}
	if person.Name != "Anna" {
		t.Errorf("expected name Anna, got %s", person.Name)
	}
	if person.Matchable {
		t.Error("person without references should not be matchable")
	}
}

func TestPeopleCreateValidation(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)

	tests := []struct {
		name string
		req  personRequest
	}{
		{"missing patient ID", personRequest{Name: "Anna"}},
		{"missing name", personRequest{PatientID: "patient-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.Create(recorder, jsonRequest(t, "POST", "/api/v1/people", tt.req))
			assertStatusCode(t, recorder, http.StatusBadRequest)
		})
	}
}

func TestPeopleCreateInvalidBody(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)

	req := httptest.NewRequest("POST", "/api/v1/people", nil)
	recorder := httptest.NewRecorder()
	handler.Create(recorder, req)
	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, errInvalidRequestBody)
}

func TestPeopleGet(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)
	created := createTestPerson(t, handler, "patient-1", "Anna")

	req := requestWithChiParams(
		httptest.NewRequest("GET", "/api/v1/people/"+created.ID, nil),
		map[string]string{"personId": created.ID},
	)
	recorder := httptest.NewRecorder()
	handler.Get(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var person personResponse
	parseJSONResponse(t, recorder, &person)
	if person.ID != created.ID {
		t.Errorf("expected ID %s, got %s", created.ID, person.ID)
	}
	if person.Relationship != "daughter" {
		t.Errorf("expected relationship daughter, got %s", person.Relationship)
	}
}

func TestPeopleGetNotFound(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)

	req := requestWithChiParams(
		httptest.NewRequest("GET", "/api/v1/people/missing", nil),
		map[string]string{"personId": "missing"},
	)
	recorder := httptest.NewRecorder()
	handler.Get(recorder, req)
	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestPeopleUpdate(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)
	created := createTestPerson(t, handler, "patient-1", "Anna")

	req := requestWithChiParams(
		jsonRequest(t, "PUT", "/api/v1/people/"+created.ID, personRequest{
			PatientID:        "patient-1",
			Name:             "Anna Marie",
			Relationship:     "granddaughter",
			AnnouncementText: "Anna Marie is visiting you.",
			VoicePreset:      "warm-male",
		}),
		map[string]string{"personId": created.ID},
	)
	recorder := httptest.NewRecorder()
	handler.Update(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var person personResponse
	parseJSONResponse(t, recorder, &person)
	if person.Name != "Anna Marie" {
		t.Errorf("expected updated name, got %s", person.Name)
	}
	if person.AnnouncementText != "Anna Marie is visiting you." {
		t.Errorf("unexpected announcement text: %s", person.AnnouncementText)
	}
}

func TestPeopleDelete(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)
	created := createTestPerson(t, handler, "patient-1", "Anna")

	req := requestWithChiParams(
		httptest.NewRequest("DELETE", "/api/v1/people/"+created.ID, nil),
		map[string]string{"personId": created.ID},
	)
	recorder := httptest.NewRecorder()
	handler.Delete(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	// Second delete finds nothing.
	recorder = httptest.NewRecorder()
	handler.Delete(recorder, requestWithChiParams(
		httptest.NewRequest("DELETE", "/api/v1/people/"+created.ID, nil),
		map[string]string{"personId": created.ID},
	))
	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestPeopleList(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)
	createTestPerson(t, handler, "patient-1", "Anna")
	createTestPerson(t, handler, "patient-1", "Bob")
	createTestPerson(t, handler, "patient-2", "Carol")

	req := requestWithChiParams(
		httptest.NewRequest("GET", "/api/v1/patients/patient-1/people", nil),
		map[string]string{"patientId": "patient-1"},
	)
	recorder := httptest.NewRecorder()
	handler.List(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		People []personResponse `json:"people"`
	}
	parseJSONResponse(t, recorder, &result)
	if len(result.People) != 2 {
		t.Fatalf("expected 2 people, got %d", len(result.People))
	}
	if result.People[0].Name != "Anna" || result.People[1].Name != "Bob" {
		t.Errorf("expected people sorted by name, got %s, %s", result.People[0].Name, result.People[1].Name)
	}
}

func TestAddReference(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)
	created := createTestPerson(t, handler, "patient-1", "Anna")

	req := requestWithChiParams(
		newImageUploadRequest(t, "POST", "/api/v1/people/"+created.ID+"/references", []byte("reference photo one")),
		map[string]string{"personId": created.ID},
	)
	recorder := httptest.NewRecorder()
	handler.AddReference(recorder, req)
	assertStatusCode(t, recorder, http.StatusCreated)

	var ref referenceResponse
	parseJSONResponse(t, recorder, &ref)
	if ref.ID == 0 {
		t.Error("expected a reference ID")
	}

	// The person becomes matchable once a reference exists.
	recorder = httptest.NewRecorder()
	handler.Get(recorder, requestWithChiParams(
		httptest.NewRequest("GET", "/api/v1/people/"+created.ID, nil),
		map[string]string{"personId": created.ID},
	))
	var person personResponse
	parseJSONResponse(t, recorder, &person)
	if !person.Matchable {
		t.Error("expected person to be matchable after adding a reference")
	}
	if person.ReferenceCount != 1 {
		t.Errorf("expected reference count 1, got %d", person.ReferenceCount)
	}
}

func TestAddReferenceDuplicate(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)
	created := createTestPerson(t, handler, "patient-1", "Anna")

	photo := []byte("the very same photo")
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := requestWithChiParams(
			newImageUploadRequest(t, "POST", "/api/v1/people/"+created.ID+"/references", photo),
			map[string]string{"personId": created.ID},
		)
		recorder := httptest.NewRecorder()
		handler.AddReference(recorder, req)
		if recorder.Code != want {
			t.Errorf("upload %d: expected status %d, got %d", i+1, want, recorder.Code)
		}
	}
}

func TestAddReferenceMissingImage(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)
	created := createTestPerson(t, handler, "patient-1", "Anna")

	req := requestWithChiParams(
		httptest.NewRequest("POST", "/api/v1/people/"+created.ID+"/references", nil),
		map[string]string{"personId": created.ID},
	)
	recorder := httptest.NewRecorder()
	handler.AddReference(recorder, req)
	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestAddReferencePersonNotFound(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)

	req := requestWithChiParams(
		newImageUploadRequest(t, "POST", "/api/v1/people/missing/references", []byte("photo")),
		map[string]string{"personId": "missing"},
	)
	recorder := httptest.NewRecorder()
	handler.AddReference(recorder, req)
	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestListAndRemoveReferences(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)
	created := createTestPerson(t, handler, "patient-1", "Anna")

	for _, photo := range []string{"photo one", "photo two"} {
		req := requestWithChiParams(
			newImageUploadRequest(t, "POST", "/api/v1/people/"+created.ID+"/references", []byte(photo)),
			map[string]string{"personId": created.ID},
		)
		recorder := httptest.NewRecorder()
		handler.AddReference(recorder, req)
		assertStatusCode(t, recorder, http.StatusCreated)
	}

	recorder := httptest.NewRecorder()
	handler.ListReferences(recorder, requestWithChiParams(
		httptest.NewRequest("GET", "/api/v1/people/"+created.ID+"/references", nil),
		map[string]string{"personId": created.ID},
	))
	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		References []referenceResponse `json:"references"`
	}
	parseJSONResponse(t, recorder, &result)
	if len(result.References) != 2 {
		t.Fatalf("expected 2 references, got %d", len(result.References))
	}

	refID := result.References[0].ID
	recorder = httptest.NewRecorder()
	handler.RemoveReference(recorder, requestWithChiParams(
		httptest.NewRequest("DELETE", "/api/v1/people/"+created.ID+"/references/"+strconv.FormatInt(refID, 10), nil),
		map[string]string{"personId": created.ID, "referenceId": strconv.FormatInt(refID, 10)},
	))
	assertStatusCode(t, recorder, http.StatusOK)

	person, err := svc.GetPerson(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("failed to reload person: %v", err)
	}
	if person.ReferenceCount != 1 {
		t.Errorf("expected reference count 1 after removal, got %d", person.ReferenceCount)
	}
}

func TestRemoveReferenceInvalidID(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)

	recorder := httptest.NewRecorder()
	handler.RemoveReference(recorder, requestWithChiParams(
		httptest.NewRequest("DELETE", "/api/v1/people/p/references/abc", nil),
		map[string]string{"personId": "p", "referenceId": "abc"},
	))
	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "invalid reference ID")
}

func TestRemoveReferenceWrongPerson(t *testing.T) {
	svc, _ := testEnrollment(t)
	handler := NewPeopleHandler(svc)
	anna := createTestPerson(t, handler, "patient-1", "Anna")
	ben := createTestPerson(t, handler, "patient-1", "Ben")

	req := requestWithChiParams(
		newImageUploadRequest(t, "POST", "/api/v1/people/"+anna.ID+"/references", []byte("photo")),
		map[string]string{"personId": anna.ID},
	)
	recorder := httptest.NewRecorder()
	handler.AddReference(recorder, req)
	assertStatusCode(t, recorder, http.StatusCreated)

	var ref referenceResponse
	parseJSONResponse(t, recorder, &ref)
	refID := strconv.FormatInt(ref.ID, 10)

	recorder = httptest.NewRecorder()
	handler.RemoveReference(recorder, requestWithChiParams(
		httptest.NewRequest("DELETE", "/api/v1/people/"+ben.ID+"/references/"+refID, nil),
		map[string]string{"personId": ben.ID, "referenceId": refID},
	))
	assertStatusCode(t, recorder, http.StatusNotFound)

	person, err := svc.GetPerson(context.Background(), anna.ID)
	if err != nil {
		t.Fatalf("failed to reload person: %v", err)
	}
	if person.ReferenceCount != 1 {
		t.Errorf("expected reference count 1, got %d", person.ReferenceCount)
	}
}
