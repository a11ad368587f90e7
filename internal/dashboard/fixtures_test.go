package dashboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vidaplena/analytics/internal/domain/clinical"
	"github.com/vidaplena/analytics/internal/domain/hr"
	"github.com/vidaplena/analytics/internal/domain/supply"
	"github.com/vidaplena/analytics/internal/generate"
)

var clinicalRows = []string{
	"0;1000000;Ana Souza;1980-04-02;2024-01-01 10:00:00;Exame;Cardiologia;0;SUS;100,00;Pago",
	"1;1000000;Ana Souza;1980-04-02;2024-01-05 10:00:00;Consulta;Cardiologia;0;SUS;200,00;Pago",
	"2;1000001;Bia Lima;1990-01-01;2024-02-01 09:00:00;Internação;Ortopedia;3;Amil;1000,00;Pendente",
	"3;1000002;Caio Reis;1970-06-06;2024-03-01 08:00:00;Consulta;Pediatria;0;Bradesco Saúde;300,00;Glosado",
}

var supplyRows = []string{
	"500000;2001;Luvas;EPI;101;MedSupply;2024-01-10 00:00:00;10;5,00;50,00;Entregue;2024-01-20 00:00:00;2024-01-19 00:00:00",
	"500001;2002;Seringa;Material;102;FarmaDist;2024-01-15 00:00:00;40;2,50;100,00;Atrasado;2024-01-25 00:00:00;2024-01-30 00:00:00",
	"500002;2001;Luvas;EPI;102;FarmaDist;2024-03-03 00:00:00;6;5,00;30,00;Pendente;2024-03-13 00:00:00;",
	"500003;2003;Máscara;EPI;101;MedSupply;2024-03-20 00:00:00;20;1,00;20,00;Entregue;2024-03-30 00:00:00;2024-03-28 00:00:00",
}

var hrRows = []string{
	"1000;Ana;30;Feminino;Vendas;Gerente de Contas;Pleno;2020-01-01;;;5000,00;4;5;10;Não;4,00",
	"1001;Bia;42;Feminino;Vendas;Gerente de Contas;Pleno;2019-01-01;2023-01-01;Pedido de demissão;7000,00;2;1;0;Não;4,00",
	"1002;Caio;27;Masculino;TI;Desenvolvedor;Júnior;2022-01-01;;;3000,00;3;3;5;Não;2,00",
	"1003;Davi;33;Masculino;TI;Desenvolvedor;Sênior;2018-01-01;2024-06-01;Demissão;9000,00;5;4;20;Sim;6,00",
}

func writeDataset(t *testing.T, path string, columns, rows []string) {
	t.Helper()
	content := strings.Join(columns, ";") + "\n" + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fixturePaths writes the three datasets into a temp dir.
func fixturePaths(t *testing.T) generate.Paths {
	t.Helper()
	dir := t.TempDir()
	p := generate.Paths{
		Clinical: filepath.Join(dir, "clinical.csv"),
		Supply:   filepath.Join(dir, "supply.csv"),
		HR:       filepath.Join(dir, "hr.csv"),
	}
	writeDataset(t, p.Clinical, clinical.Columns, clinicalRows)
	writeDataset(t, p.Supply, supply.Columns, supplyRows)
	writeDataset(t, p.HR, hr.Columns, hrRows)
	return p
}
