package soap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
)

// SystemPrompt is the fixed instruction sent with every note generation call
const SystemPrompt = `Tu es un assistant de documentation clinique. Tu rédiges des notes de consultation au format SOAP à partir de la transcription d'un échange entre un médecin et son patient.

RÈGLES STRICTES:
- N'utilise que les informations présentes dans la transcription ou le contexte fourni.
- N'invente aucun symptôme, diagnostic, traitement, dosage ou constante.
- Si une information est absente, laisse le champ vide ("" ou []).
- Emploie une terminologie médicale française précise et concise.
- Réponds UNIQUEMENT avec un objet JSON valide, sans texte avant ni après.

FORMAT DE RÉPONSE (JSON):
{
  "subjective": "plainte du patient, histoire de la maladie, antécédents rapportés",
  "objective": "examen clinique, constantes, résultats d'examens",
  "assessment": "analyse clinique et hypothèses diagnostiques",
  "plan": "traitement, examens complémentaires, suivi",
  "chief_complaint": "motif principal de consultation",
  "allergies": ["allergie 1"],
  "medications": ["médicament et posologie"],
  "vital_signs": {"temperature": "", "blood_pressure": "", "heart_rate": "", "oxygen_saturation": ""}
}`

// BuildNotePrompt assembles the user prompt for one consultation
func BuildNotePrompt(transcript string, ents entities.ClinicalEntities, patientContext, focus string) string {
	var b strings.Builder

	b.WriteString("CONTEXTE PATIENT:\n")
	if strings.TrimSpace(patientContext) != "" {
		b.WriteString(strings.TrimSpace(patientContext))
	} else {
		b.WriteString("Non renseigné")
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "CONTEXTE SPÉCIALITÉ: %s\n\n", focus)

	b.WriteString("TRANSCRIPTION DE LA CONSULTATION:\n")
	b.WriteString(strings.TrimSpace(transcript))
	b.WriteString("\n\n")

	b.WriteString("ENTITÉS MÉDICALES DÉTECTÉES:\n")
	writeEntityLine(&b, "Symptômes", ents.Symptoms)
	writeEntityLine(&b, "Diagnostics", ents.Diagnoses)
	writeEntityLine(&b, "Médicaments", ents.Medications)
	writeEntityLine(&b, "Allergies", ents.Allergies)
	if len(ents.VitalSigns) > 0 {
		keys := make([]string, 0, len(ents.VitalSigns))
		for k := range ents.VitalSigns {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+ents.VitalSigns[k])
		}
		fmt.Fprintf(&b, "- Constantes: %s\n", strings.Join(parts, ", "))
	}
	b.WriteString("\n")

	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("Rédige la note SOAP de cette consultation en respectant strictement le format JSON demandé. ")
	b.WriteString("Les entités détectées sont indicatives: vérifie-les dans la transcription avant de les reprendre.")
	return b.String()
}

func writeEntityLine(b *strings.Builder, label string, items []string) {
	value := "aucun"
	if len(items) > 0 {
		value = strings.Join(items, ", ")
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}
